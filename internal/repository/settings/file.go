package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
)

const (
	// AlarmNamespace groups the alarm settings.
	AlarmNamespace = "AlarmSettings"
	// KeyToneURI holds the selected tone URI.
	KeyToneURI = "selected_tone_uri"
	// KeyToneName holds the selected tone display name.
	KeyToneName = "selected_tone_name"
)

var (
	// ErrNotFound is returned by Get when the key is not set.
	ErrNotFound = errors.New("setting not found")
	// errNamespaceRequired is returned for an empty namespace or key.
	errNamespaceRequired = errors.New("namespace and key must be provided")
	// errNotString is returned when a stored value is not a string.
	errNotString = errors.New("setting is not a string")
)

// Repository defines persistence operations for settings.
type Repository interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	LoadTone(ctx context.Context) (*tone.Reference, error)
	SaveTone(ctx context.Context, ref tone.Reference) error
}

// FileRepository persists settings to a JSON file on disk.
// The document is a protobuf Struct of namespaces, each a Struct of string
// values, encoded with protojson.
type FileRepository struct {
	// path is the filesystem location of the JSON settings file.
	path string
	// mu protects concurrent access to the settings file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Get returns the value stored under namespace/key.
func (r *FileRepository) Get(_ context.Context, namespace, key string) (string, error) {
	if namespace == "" || key == "" {
		return "", errNamespaceRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	document, err := r.read()
	if err != nil {
		return "", err
	}

	value, ok := document.GetFields()[namespace].GetStructValue().GetFields()[key]
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", namespace, key, ErrNotFound)
	}

	text, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", namespace, key, errNotString)
	}

	return text.StringValue, nil
}

// Set stores value under namespace/key. An empty value removes the key.
func (r *FileRepository) Set(_ context.Context, namespace, key, value string) error {
	if namespace == "" || key == "" {
		return errNamespaceRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	document, err := r.read()
	if err != nil {
		return err
	}

	setLocked(document, namespace, key, value)

	return r.write(document)
}

// LoadTone returns the persisted tone, or nil when none is selected.
func (r *FileRepository) LoadTone(_ context.Context) (*tone.Reference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	document, err := r.read()
	if err != nil {
		return nil, err
	}

	fields := document.GetFields()[AlarmNamespace].GetStructValue().GetFields()

	ref := &tone.Reference{
		URI:  fields[KeyToneURI].GetStringValue(),
		Name: fields[KeyToneName].GetStringValue(),
	}

	if ref.IsZero() {
		return nil, nil //nolint:nilnil // Unset tone is not an error.
	}

	return ref, nil
}

// SaveTone persists ref. A zero reference clears the selection.
func (r *FileRepository) SaveTone(_ context.Context, ref tone.Reference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	document, err := r.read()
	if err != nil {
		return err
	}

	name := ref.Name
	if ref.URI == "" {
		name = ""
	}

	setLocked(document, AlarmNamespace, KeyToneURI, ref.URI)
	setLocked(document, AlarmNamespace, KeyToneName, name)

	return r.write(document)
}

// read loads the document; a missing file reads as empty.
func (r *FileRepository) read() (*structpb.Struct, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return new(structpb.Struct), nil
		}

		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var document structpb.Struct
	if err = protojson.Unmarshal(contents, &document); err != nil {
		return nil, fmt.Errorf("decode settings file: %w", err)
	}

	return &document, nil
}

func (r *FileRepository) write(document *structpb.Struct) error {
	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
		Indent:    "  ",
	}

	data, err := marshalOptions.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func setLocked(document *structpb.Struct, namespace, key, value string) {
	if document.Fields == nil {
		document.Fields = make(map[string]*structpb.Value)
	}

	section := document.GetFields()[namespace].GetStructValue()
	if section == nil {
		section = new(structpb.Struct)
	}

	if section.Fields == nil {
		section.Fields = make(map[string]*structpb.Value)
	}

	if value == "" {
		delete(section.Fields, key)
	} else {
		section.Fields[key] = structpb.NewStringValue(value)
	}

	document.Fields[namespace] = structpb.NewStructValue(section)
}
