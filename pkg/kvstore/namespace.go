package kvstore

// NamespacedStore prefixes every key, letting independent draft machines
// share one underlying sqlite file.
type NamespacedStore struct {
	inner  Store
	prefix string
}

func NewNamespaced(inner Store, prefix string) *NamespacedStore {
	return &NamespacedStore{inner: inner, prefix: prefix + ":"}
}

func (s *NamespacedStore) Get(key string) (string, bool, error) {
	return s.inner.Get(s.prefix + key)
}

func (s *NamespacedStore) Set(key, value string) error {
	return s.inner.Set(s.prefix+key, value)
}

func (s *NamespacedStore) Delete(key string) error {
	return s.inner.Delete(s.prefix + key)
}

// Close is a no-op; the shared underlying store outlives any namespace.
func (s *NamespacedStore) Close() error {
	return nil
}
