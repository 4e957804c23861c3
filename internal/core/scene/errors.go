package scene

import "errors"

var ErrMalformedScene = errors.New("malformed scene document")
