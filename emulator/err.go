package emulator

import (
	"github.com/ezrec/stackvm/translate"
)

var f = translate.From

// ErrRuntime indicates the source location of a runtime fault.
// LineNo is 0 when the fault has no source line.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
