// Unified error handling for the diffractometer computation core.
//
// Recoverable conditions (bad input values, solver non-convergence,
// missing axes) are reported as *Error values carrying a code so
// callers can branch on the category without string matching.
// Configuration mistakes in an instrument descriptor are not runtime
// conditions and are raised through Fatalf instead.
package errors

import "fmt"

// Code is the category of error.
type Code string

const (
	// ErrConfig flags a broken instrument descriptor: an axis
	// registered twice with incompatible transformations, an engine
	// mode naming an unknown axis, a malformed built-in parameter.
	ErrConfig Code = "CONFIG"

	// ErrInvalidValue flags a rejected value set (NaN, unknown axis,
	// length mismatch). The target state is left untouched.
	ErrInvalidValue Code = "INVALID_VALUE"

	// ErrLatticeParam flags crystal lattice parameters that do not
	// describe a valid cell.
	ErrLatticeParam Code = "LATTICE_PARAM"

	// ErrNoConvergence flags a nonlinear solve that hit its iteration
	// ceiling without reaching the residual tolerance.
	ErrNoConvergence Code = "SOLVER_NO_CONVERGENCE"

	// ErrNoSolution flags an inverse solve that produced no usable
	// motor settings for the requested pseudo-axis target.
	ErrNoSolution Code = "NO_SOLUTION"

	// ErrUndefinedClosest flags a closest-value request for which no
	// period-shifted representative falls inside the axis range.
	ErrUndefinedClosest Code = "UNDEFINED_CLOSEST"
)

// Error is the unified error type for the core.
type Error struct {
	Code    Code
	Message string
	Axis    string
	Err     error
}

func (e *Error) Error() string {
	if e.Axis != "" {
		return fmt.Sprintf("[%s] axis %q: %s", e.Code, e.Axis, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given code and formatted message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying error.
func Wrap(err error, code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithAxis tags the error with the axis it concerns.
func (e *Error) WithAxis(name string) *Error {
	e.Axis = name
	return e
}

// Is lets errors.Is match on a bare code sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// Sentinel returns a code-only error usable as an errors.Is target.
func Sentinel(code Code) *Error {
	return &Error{Code: code}
}

// CodeOf extracts the code of an error, or "" for foreign errors.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// Fatalf reports an unrecoverable configuration mistake. A duplicate
// axis with a different transformation means the instrument descriptor
// itself is wrong; continuing would silently compute on the wrong
// geometry.
func Fatalf(format string, args ...interface{}) {
	panic(New(ErrConfig, format, args...))
}
