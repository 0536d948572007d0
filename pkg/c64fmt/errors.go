package c64fmt

import "errors"

var (
	ErrDiskImageSize   = errors.New("c64fmt: not a d64 image size")
	ErrBootTooLarge    = errors.New("c64fmt: boot bank larger than 8k")
	ErrCartridgeHeader = errors.New("c64fmt: invalid cartridge header")
	ErrCartridgeTooBig = errors.New("c64fmt: image needs more banks than the cartridge has")
	ErrSIDHeader       = errors.New("c64fmt: invalid sid header")
	ErrSIDLoadAddress  = errors.New("c64fmt: sid load address overlaps the player")
	ErrSIDTooLarge     = errors.New("c64fmt: sid data runs past the end of memory")
)
