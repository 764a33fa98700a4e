package session

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	domain "github.com/oshokin/proximity-alarm/internal/domain/session"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
	"github.com/oshokin/proximity-alarm/internal/status"
)

// Struct field names.
const (
	fieldID                 = "id"
	fieldLatitude           = "latitude"
	fieldLongitude          = "longitude"
	fieldAccuracyMeters     = "accuracy_meters"
	fieldTimestamp          = "timestamp"
	fieldToneURI            = "tone_uri"
	fieldToneName           = "tone_name"
	fieldPhase              = "phase"
	fieldLastDistanceMeters = "last_distance_meters"
	fieldSamplesProcessed   = "samples_processed"
	fieldStartedAt          = "started_at"
	fieldUpdatedAt          = "updated_at"
	fieldTriggeredAt        = "triggered_at"
	fieldKind               = "kind"
	fieldText               = "text"
	fieldDistanceMeters     = "distance_meters"
	fieldSessionID          = "session_id"
)

var (
	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("missing field")
	// ErrFieldType is returned when a field has the wrong kind.
	ErrFieldType = errors.New("unexpected field type")
)

// EncodeStartRequest builds the Start request message.
func EncodeStartRequest(target geo.Target, ref *tone.Reference) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldLatitude:  structpb.NewNumberValue(target.Latitude),
		fieldLongitude: structpb.NewNumberValue(target.Longitude),
	}

	if !ref.IsZero() {
		fields[fieldToneURI] = structpb.NewStringValue(ref.URI)

		if ref.Name != "" {
			fields[fieldToneName] = structpb.NewStringValue(ref.Name)
		}
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeStartRequest parses the Start request message. The target is not
// validated here.
func DecodeStartRequest(msg *structpb.Struct) (geo.Target, *tone.Reference, error) {
	var target geo.Target

	latitude, err := number(msg, fieldLatitude)
	if err != nil {
		return target, nil, err
	}

	longitude, err := number(msg, fieldLongitude)
	if err != nil {
		return target, nil, err
	}

	target = geo.Target{Latitude: latitude, Longitude: longitude}

	ref := &tone.Reference{
		URI:  optionalString(msg, fieldToneURI),
		Name: optionalString(msg, fieldToneName),
	}

	return target, ref.Clone(), nil
}

// EncodeSample builds the ReportLocation request message.
func EncodeSample(sample geo.Sample) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldLatitude:  structpb.NewNumberValue(sample.Latitude),
		fieldLongitude: structpb.NewNumberValue(sample.Longitude),
	}

	if sample.AccuracyMeters > 0 {
		fields[fieldAccuracyMeters] = structpb.NewNumberValue(sample.AccuracyMeters)
	}

	if !sample.Timestamp.IsZero() {
		fields[fieldTimestamp] = timeValue(sample.Timestamp)
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeSample parses the ReportLocation request message and rejects
// non-finite or out of range coordinates.
func DecodeSample(msg *structpb.Struct) (geo.Sample, error) {
	var sample geo.Sample

	latitude, err := number(msg, fieldLatitude)
	if err != nil {
		return sample, err
	}

	longitude, err := number(msg, fieldLongitude)
	if err != nil {
		return sample, err
	}

	timestamp, err := optionalTime(msg, fieldTimestamp)
	if err != nil {
		return sample, err
	}

	sample = geo.Sample{
		Latitude:       latitude,
		Longitude:      longitude,
		AccuracyMeters: msg.GetFields()[fieldAccuracyMeters].GetNumberValue(),
		Timestamp:      timestamp,
	}

	if err = sample.Validate(); err != nil {
		return geo.Sample{}, err
	}

	return sample, nil
}

// EncodeSnapshot converts a session snapshot to a Struct.
func EncodeSnapshot(snapshot *domain.Snapshot) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldID:               structpb.NewStringValue(snapshot.ID),
		fieldPhase:            structpb.NewStringValue(snapshot.Phase.String()),
		fieldLatitude:         structpb.NewNumberValue(snapshot.Target.Latitude),
		fieldLongitude:        structpb.NewNumberValue(snapshot.Target.Longitude),
		fieldSamplesProcessed: structpb.NewNumberValue(float64(snapshot.SamplesProcessed)),
	}

	if !snapshot.Tone.IsZero() {
		fields[fieldToneURI] = structpb.NewStringValue(snapshot.Tone.URI)
		fields[fieldToneName] = structpb.NewStringValue(snapshot.Tone.Name)
	}

	if snapshot.LastDistanceMeters != nil {
		fields[fieldLastDistanceMeters] = structpb.NewNumberValue(*snapshot.LastDistanceMeters)
	}

	for name, value := range map[string]time.Time{
		fieldStartedAt:   snapshot.StartedAt,
		fieldUpdatedAt:   snapshot.UpdatedAt,
		fieldTriggeredAt: snapshot.TriggeredAt,
	} {
		if !value.IsZero() {
			fields[name] = timeValue(value)
		}
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeSnapshot parses a Struct produced by EncodeSnapshot.
func DecodeSnapshot(msg *structpb.Struct) (*domain.Snapshot, error) {
	latitude, err := number(msg, fieldLatitude)
	if err != nil {
		return nil, err
	}

	longitude, err := number(msg, fieldLongitude)
	if err != nil {
		return nil, err
	}

	phaseName := optionalString(msg, fieldPhase)

	phase, ok := domain.ParsePhase(phaseName)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", fieldPhase, phaseName, ErrFieldType)
	}

	snapshot := &domain.Snapshot{
		ID:               optionalString(msg, fieldID),
		Target:           geo.Target{Latitude: latitude, Longitude: longitude},
		Phase:            phase,
		SamplesProcessed: uint64(msg.GetFields()[fieldSamplesProcessed].GetNumberValue()),
	}

	ref := &tone.Reference{
		URI:  optionalString(msg, fieldToneURI),
		Name: optionalString(msg, fieldToneName),
	}
	snapshot.Tone = ref.Clone()

	if value, found := msg.GetFields()[fieldLastDistanceMeters]; found {
		distance := value.GetNumberValue()
		snapshot.LastDistanceMeters = &distance
	}

	for name, target := range map[string]*time.Time{
		fieldStartedAt:   &snapshot.StartedAt,
		fieldUpdatedAt:   &snapshot.UpdatedAt,
		fieldTriggeredAt: &snapshot.TriggeredAt,
	} {
		if *target, err = optionalTime(msg, name); err != nil {
			return nil, err
		}
	}

	return snapshot, nil
}

// EncodeStatus converts a status update to a Struct.
func EncodeStatus(update status.Status) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldKind:      structpb.NewStringValue(string(update.Kind)),
		fieldText:      structpb.NewStringValue(update.Text),
		fieldSessionID: structpb.NewStringValue(update.SessionID),
	}

	if update.DistanceMeters != nil {
		fields[fieldDistanceMeters] = structpb.NewNumberValue(*update.DistanceMeters)
	}

	if !update.Timestamp.IsZero() {
		fields[fieldTimestamp] = timeValue(update.Timestamp)
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeStatus parses a Struct produced by EncodeStatus.
func DecodeStatus(msg *structpb.Struct) (status.Status, error) {
	timestamp, err := optionalTime(msg, fieldTimestamp)
	if err != nil {
		return status.Status{}, err
	}

	update := status.Status{
		Kind:      status.Kind(optionalString(msg, fieldKind)),
		Text:      optionalString(msg, fieldText),
		SessionID: optionalString(msg, fieldSessionID),
		Timestamp: timestamp,
	}

	if value, found := msg.GetFields()[fieldDistanceMeters]; found {
		distance := value.GetNumberValue()
		update.DistanceMeters = &distance
	}

	return update, nil
}

func number(msg *structpb.Struct, name string) (float64, error) {
	value, found := msg.GetFields()[name]
	if !found {
		return 0, fmt.Errorf("%s: %w", name, ErrMissingField)
	}

	kind, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, ErrFieldType)
	}

	return kind.NumberValue, nil
}

func optionalString(msg *structpb.Struct, name string) string {
	return msg.GetFields()[name].GetStringValue()
}

func optionalTime(msg *structpb.Struct, name string) (time.Time, error) {
	text := optionalString(msg, name)
	if text == "" {
		return time.Time{}, nil
	}

	parsed, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", name, err)
	}

	return parsed, nil
}

func timeValue(t time.Time) *structpb.Value {
	return structpb.NewStringValue(t.UTC().Format(time.RFC3339Nano))
}
