package fixedpoint

import "errors"

// ErrArithmeticOverflow is returned by every checked operation that
// would produce a negative result, a result exceeding the u64 range,
// or a division by zero.
var ErrArithmeticOverflow = errors.New("fixedpoint: arithmetic overflow")
