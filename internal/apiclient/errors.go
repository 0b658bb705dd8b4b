package apiclient

import "errors"

// Kind tells which remote operation did not succeed.
type Kind int

const (
	KindAuth Kind = iota + 1
	KindFetch
	KindUpdate
	KindDelete
)

var (
	ErrAuth   = errors.New("authentication failed")
	ErrFetch  = errors.New("fetching users failed")
	ErrUpdate = errors.New("updating user failed")
	ErrDelete = errors.New("deleting user failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindAuth:
		return ErrAuth
	case KindFetch:
		return ErrFetch
	case KindUpdate:
		return ErrUpdate
	case KindDelete:
		return ErrDelete
	}

	return nil
}

// Error is returned by every failed client call. Message is the human readable
// text that was also sent to the notifier.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the transport error, if the call failed before a response arrived.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFetch) and friends match on the kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}
