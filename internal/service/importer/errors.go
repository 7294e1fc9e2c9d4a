package importer

import "fmt"

// InvalidFileError reports an import source that cannot be accepted before
// any parsing happens.
type InvalidFileError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InvalidFileError) Error() string {
	return fmt.Sprintf("invalid import file %q: %s", e.Path, e.Reason)
}

func (e *InvalidFileError) Unwrap() error { return e.Err }

// ReadError wraps a workbook that exists but could not be decoded.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read workbook %q: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// TransactionError wraps a failed replace; the previous order set is intact.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("replace orders: %v", e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
