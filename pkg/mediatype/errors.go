package mediatype

import "fmt"

// UnsupportedInputError is returned when no input recognizer matches
// the value handed to FromAny.
type UnsupportedInputError struct {
	Value string
}

func (e *UnsupportedInputError) Error() string {
	return fmt.Sprintf("unsupported input: %s", e.Value)
}

// DecodeError is returned when a payload is present but cannot be
// parsed as the declared media kind.
type DecodeError struct {
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot decode %s payload", e.Kind)
	}
	return fmt.Sprintf("cannot decode %s payload: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError is returned when the in-memory buffer cannot be rendered
// to the requested output shape.
type EncodeError struct {
	Kind   Kind
	Target string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot encode %s payload to %s", e.Kind, e.Target)
	}
	return fmt.Sprintf("cannot encode %s payload to %s: %v", e.Kind, e.Target, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// MissingDependencyError is returned when the external codec backend
// needed for a media kind is not available on the system.
type MissingDependencyError struct {
	Backend string
	Kind    Kind
	Err     error
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("backend %s for %s media is not available, install it to use this operation", e.Backend, e.Kind)
}

func (e *MissingDependencyError) Unwrap() error { return e.Err }
