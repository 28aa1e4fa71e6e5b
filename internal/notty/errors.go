package notty

import (
	"errors"
	"fmt"
)

// Kind classifies repository errors so callers can branch without string matching.
type Kind int

const (
	// KindOther is returned by KindOf for errors that did not come from this package.
	KindOther Kind = iota
	// KindStructural covers repository layout problems: already exists, nested, not initialized.
	KindStructural
	// KindNotFound means a save identifier did not resolve.
	KindNotFound
	// KindMalformedIdentity means a hash string or save directory name has the wrong shape.
	KindMalformedIdentity
	// KindFilesystem wraps I/O failures, which are propagated unchanged.
	KindFilesystem
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindNotFound:
		return "not found"
	case KindMalformedIdentity:
		return "malformed identity"
	case KindFilesystem:
		return "filesystem"
	default:
		return "other"
	}
}

var (
	ErrRepositoryExists = errors.New("repository already exists")
	ErrNestedRepository = errors.New("repository exists in a parent directory")
	ErrNotInitialized   = errors.New("no repository is initialized here")
	ErrSaveNotFound     = errors.New("save not found")
	ErrMalformedHash    = errors.New("malformed hash")
	ErrNotDirectory     = errors.New("path is not a directory")
	ErrSaveExists       = errors.New("save already exists")
)

// Error is the error type returned by Repository operations.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or KindOther.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

func structuralError(op string, err error) error {
	return &Error{Kind: KindStructural, Op: op, Err: err}
}

func notFoundError(op string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Err: err}
}

func malformedError(op string, format string, args ...any) error {
	return &Error{Kind: KindMalformedIdentity, Op: op, Err: fmt.Errorf("%w: "+format, append([]any{ErrMalformedHash}, args...)...)}
}

func filesystemError(op string, err error) error {
	return &Error{Kind: KindFilesystem, Op: op, Err: err}
}
