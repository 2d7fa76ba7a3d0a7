package inventory

import "github.com/cockroachdb/errors"

var (
	// ErrStateCorrupt marks a persisted inventory blob that is not valid JSON
	ErrStateCorrupt = errors.New("persisted inventory is corrupt")

	// ErrImportInvalid marks import content that is not a JSON array of items
	ErrImportInvalid = errors.New("import must be a JSON array")

	// ErrComponentIndex is returned when a component index is out of range
	ErrComponentIndex = errors.New("component index out of range")

	// ErrComponentMismatch is returned when an update's component list does not
	// line up with the item's components
	ErrComponentMismatch = errors.New("components do not match the item")
)
