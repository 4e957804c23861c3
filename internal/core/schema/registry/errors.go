package registry

import "errors"

var (
	ErrUnknownComponent = errors.New("unknown component")
	ErrConflict         = errors.New("component registration conflict")
	ErrInvalidEntry     = errors.New("invalid registry entry")
	ErrTypeMismatch     = errors.New("component type mismatch")
	ErrNoAssetSource    = errors.New("no asset source to resolve handles")
)
