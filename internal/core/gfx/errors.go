package gfx

import "errors"

var (
	ErrFrameInFlight = errors.New("a frame is already in flight")
	ErrFrameTaken    = errors.New("frame resource was removed during draw")
	ErrInvalidSize   = errors.New("invalid surface size")
	ErrNotFixedSize  = errors.New("binding data must have a fixed size")
	ErrMalformedOBJ  = errors.New("malformed obj")
	ErrInvalidShader = errors.New("invalid shader")
	ErrEmptyMesh     = errors.New("mesh has no indices")
	ErrNoRenderer    = errors.New("renderer resource missing")
)
