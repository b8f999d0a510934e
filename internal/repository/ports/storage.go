package ports

// Storage is a durable string key/value store with the same shape as browser
// local storage. Calls are synchronous.
type Storage interface {
	// GetItem returns the stored value and whether the key was present.
	GetItem(key string) (string, bool, error)
	// SetItem overwrites the value stored under key.
	SetItem(key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error
}
