package cubism

import "errors"

var (
	// ErrTileCapacity is returned when the tile pool has fewer free slots
	// than requested. Callers degrade to unmasked or placeholder-masked
	// rendering rather than failing the frame.
	ErrTileCapacity = errors.New("cubism: not enough mask tile capacity")

	// ErrMalformedHierarchy is returned when a part ancestor walk does not
	// reach the root within the part count, which means the parent links
	// contain a cycle.
	ErrMalformedHierarchy = errors.New("cubism: malformed part hierarchy")

	// ErrInvalidConfig is wrapped by Config.Validate and LoadConfig.
	ErrInvalidConfig = errors.New("cubism: invalid config")

	// ErrInvalidModel is wrapped by NewModel for out-of-range indices.
	ErrInvalidModel = errors.New("cubism: invalid model")
)
