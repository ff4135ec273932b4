package runstore

// Option applies a configuration option to the Store.
type Option func(*FileStore)

// WithPath sets the JSON file backing the history. An empty path keeps
// the history in memory only.
func WithPath(path string) Option {
	return func(s *FileStore) {
		s.path = path
	}
}

// WithLimit bounds how many runs are retained; older runs are dropped.
func WithLimit(n int) Option {
	return func(s *FileStore) {
		s.limit = n
	}
}
