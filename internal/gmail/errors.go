package gmail

import "fmt"

// ErrorKind classifies an actuator failure for the caller's retry and
// continuation policy.
type ErrorKind int

const (
	ErrOther ErrorKind = iota
	ErrNotFound
	ErrPermissionDenied
	ErrTransient
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNotFound:
		return "not-found"
	case ErrPermissionDenied:
		return "permission-denied"
	case ErrTransient:
		return "transient-unavailable"
	default:
		return "other"
	}
}

// ActuatorError is a collaborator-reported failure applying one
// mutation to one message.
type ActuatorError struct {
	Kind ErrorKind
	Op   string
	ID   MessageID
	Err  error
}

func (e *ActuatorError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.ID, e.Kind, e.Err)
}

func (e *ActuatorError) Unwrap() error { return e.Err }
