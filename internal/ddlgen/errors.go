package ddlgen

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedScalarType matches any *UnsupportedScalarTypeError.
	ErrUnsupportedScalarType = errors.New("unsupported scalar type")
	// ErrUnsupportedFeature matches any *UnsupportedFeatureError.
	ErrUnsupportedFeature = errors.New("unsupported feature")
	// ErrSerialization matches any *SerializationError.
	ErrSerialization = errors.New("serialization failed")
)

// UnsupportedScalarTypeError reports a field whose scalar has no column type.
type UnsupportedScalarTypeError struct {
	TypeName  string
	FieldName string
	Scalar    string
}

func (e *UnsupportedScalarTypeError) Error() string {
	return fmt.Sprintf("%s.%s: unsupported scalar type %q", e.TypeName, e.FieldName, e.Scalar)
}

func (e *UnsupportedScalarTypeError) Is(target error) bool {
	return target == ErrUnsupportedScalarType
}

// UnsupportedFeatureError reports a field shape the generator cannot map.
type UnsupportedFeatureError struct {
	TypeName  string
	FieldName string
	Reason    string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.TypeName, e.FieldName, e.Reason)
}

func (e *UnsupportedFeatureError) Is(target error) bool {
	return target == ErrUnsupportedFeature
}

// SerializationError wraps a failure of the changelog serializer.
type SerializationError struct {
	Format string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to serialize %s changelog: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}
