package erased

import "github.com/oliverbestmann/neat/internal/assert"

// Errors wrapped by the panic values raised on misuse of an Any or AnyPtr.
// Match them with errors.Is after recovering.
var (
	ErrPrecondition = assert.ErrPrecondition
	ErrTypeMismatch = assert.ErrTypeMismatch
	ErrArity        = assert.ErrArity
	ErrEmpty        = assert.ErrEmpty
	ErrInvalid      = assert.ErrInvalid
)
