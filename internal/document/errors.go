package document

import "errors"

// Validation errors. The operation that returns one leaves the document
// unchanged.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateLandmark = errors.New("a landmark already exists at this hex")
	ErrInvalidAttributes = errors.New("attributes must be a JSON object")
	ErrIconRequired      = errors.New("icon style requires an icon URL")
	ErrTooFewPoints      = errors.New("paths must have at least 2 points")
	ErrInvalidIndex      = errors.New("point index out of range")
	ErrInvalidTerrain    = errors.New("unknown terrain")
	ErrInvalidFormat     = errors.New("invalid world file format")
)
