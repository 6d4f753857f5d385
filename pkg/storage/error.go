package storage

// NotFoundError is returned when a memory id doesn't exist in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "memory not found"
	}

	return "memory not found: " + e.ID
}

// DuplicateKeyError is returned when writing a memory whose id is already
// taken. Write never silently overwrites.
type DuplicateKeyError struct {
	ID string
}

func (e DuplicateKeyError) Error() string {
	return "duplicate memory id: " + e.ID
}

// VectorAttachedError is returned when an update tries to replace a vector
// that was already attached. Vectors are set at most once per memory.
type VectorAttachedError struct {
	ID string
}

func (e VectorAttachedError) Error() string {
	return "vector already attached to memory: " + e.ID
}
