package assets

import "errors"

var (
	ErrNoLoader     = errors.New("no loader registered for asset type")
	ErrNotFound     = errors.New("asset not found")
	ErrUnresolved   = errors.New("asset handle not resolved")
	ErrTypeMismatch = errors.New("asset type mismatch")
)
