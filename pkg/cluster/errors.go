package cluster

import "fmt"

// ErrorKind classifies controller failures so the command dispatcher can tell
// operator mistakes from infrastructure trouble.
type ErrorKind int

const (
	// ConfigurationError marks a structurally invalid combination of inputs.
	ConfigurationError ErrorKind = iota
	// IllegalStateError marks a precondition violated against observed system
	// state, like a missing engine or an occupied port.
	IllegalStateError
	// ConnectionError marks an unreachable remote host.
	ConnectionError
	// AuthenticationError marks a reachable remote host whose identity could
	// not be verified.
	AuthenticationError
	// StartFailure marks a spawned process that never reached Running, or a
	// sync barrier that resolved to failure.
	StartFailure
	// StopFailure marks a node that did not confirm termination.
	StopFailure
)

func (kind ErrorKind) String() string {
	switch kind {
	case ConfigurationError:
		return "configuration error"
	case IllegalStateError:
		return "illegal state"
	case ConnectionError:
		return "connection error"
	case AuthenticationError:
		return "authentication error"
	case StartFailure:
		return "start failed"
	case StopFailure:
		return "stop failed"
	}
	return "unknown error"
}

// Error is the typed failure value of the cluster package.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (err *Error) Error() string {
	if err.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", err.Kind, err.Message, err.Cause)
	}
	return fmt.Sprintf("%s: %s", err.Kind, err.Message)
}

func (err *Error) Unwrap() error {
	return err.Cause
}

// NewError creates an Error without an underlying cause.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates an Error carrying an underlying cause.
func WrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// IsKind reports whether err is a cluster Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	clusterErr, ok := err.(*Error)
	return ok && clusterErr.Kind == kind
}
