package errutil

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrIllegalParameter  = errors.New("illegal parameter")
	ErrInvalidDimensions = errors.New("grid dimensions must be positive")
	ErrOutOfBounds       = errors.New("cell out of grid bounds")
	ErrMaskSize          = errors.New("passability mask size does not match grid")
	ErrInvalidWeight     = errors.New("terrain weight must be positive and finite")
	ErrInvalidMovement   = errors.New("movement must be 4 or 8 directional")
	ErrHeuristicMismatch = errors.New("heuristic movement does not match engine movement")
	ErrWorkerTransport   = errors.New("path worker transport failure")
	ErrWorkerClosed      = errors.New("path worker closed")
	ErrJournalDisabled   = errors.New("query journal disabled")
	ErrNoUndo            = errors.New("nothing to undo")
	ErrNoRedo            = errors.New("nothing to redo")
)
