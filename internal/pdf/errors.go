package pdf

import "fmt"

// SelectionError reports a malformed or out-of-range page selection.
// It is user-correctable; Token names the part of the expression that failed.
type SelectionError struct {
	Token string
	Msg   string
}

func (e *SelectionError) Error() string {
	return e.Msg
}

// ReadError reports that the source bytes are not a readable PDF, or that
// the codec failed while copying or extracting a page.
type ReadError struct {
	Reason string
	Err    error
}

func (e *ReadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ReadError) Unwrap() error { return e.Err }
