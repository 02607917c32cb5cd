package grid

import "errors"

var (
	ErrOutOfBounds      = errors.New("coordinate out of bounds")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrIndexOutOfRange  = errors.New("layer index out of range")
	ErrMissingParameter = errors.New("missing parameter")
	ErrNotFound         = errors.New("object not found")
	ErrNotTiledMap      = errors.New("not a tiled map document")
)
