// Package session implements the gRPC transport for the proximity alarm
// session service.
//
// Messages are protobuf well-known types (Struct and Empty) so the service
// descriptor is maintained by hand in this package instead of being
// generated. The package also adapts domain types to and from Structs and
// exposes a server that calls into a provided business-service interface.
package session
