package library

// Store persists the full library document.
//
// Load returns an empty snapshot (not an error) when nothing has been saved
// yet. A snapshot that exists but cannot be decoded is reported as an error
// wrapping ErrCorruptData, so the caller can fall back to an empty library
// instead of crashing.
//
// Save overwrites the persisted document with the given snapshot. The engine
// calls it synchronously after every successful mutation.
type Store interface {
	Load() (*Snapshot, error)
	Save(*Snapshot) error
}
