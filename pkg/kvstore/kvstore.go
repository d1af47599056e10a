package kvstore

// Store is the local durable key/value surface the draft machine persists
// through. It is scoped to the device/process, not the account.
type Store interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}
