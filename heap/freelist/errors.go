package freelist

import "errors"

// ErrCorrupt indicates a descriptor chain that cannot be a valid free list.
var ErrCorrupt = errors.New("freelist: corrupt descriptor chain")
