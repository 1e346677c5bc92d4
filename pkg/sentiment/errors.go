package sentiment

import "errors"

// ErrInvalidParameter is returned before any retrieval when a query or
// argument is out of range.
var ErrInvalidParameter = errors.New("invalid parameter")
