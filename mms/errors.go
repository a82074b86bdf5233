package mms

import (
	"fmt"

	"github.com/nuntium/mmsengine/mmserr"
)

// decodeError classifies a codec failure as mmserr.Invalid: malformed
// input, never retried.
func decodeError(format string, args ...any) error {
	return mmserr.Invalid(fmt.Errorf(format, args...))
}

// encodeError classifies a codec failure as mmserr.FailedPrecondition:
// our own data or an I/O problem prevented emitting a PDU.
func encodeError(format string, args ...any) error {
	return mmserr.FailedPrecondition(fmt.Errorf(format, args...))
}
