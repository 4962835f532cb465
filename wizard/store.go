package wizard

// Store is the durable key-value port used to resume an in-progress wizard.
// GetItem reports ok=false, with a nil error, for a missing key.
type Store interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}
