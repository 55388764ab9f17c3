package format

import "errors"

// ErrTruncated indicates the buffer lacked the bytes required for a descriptor.
var ErrTruncated = errors.New("format: truncated buffer")
