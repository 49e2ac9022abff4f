package store

import "fmt"

// Open creates a checkpoint store rooted at dir.
// Supported backends: "fs" (the default when empty) and "sqlite".
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", "fs":
		return NewFSStore(dir)
	case "sqlite":
		return NewSQLiteStore(dir)
	default:
		return nil, fmt.Errorf("unsupported checkpoint backend: %s", backend)
	}
}

// CloseIfSupported releases backend resources when the store holds any.
// The fs backend has nothing to release; the sqlite backend closes its
// database handle.
func CloseIfSupported(s Store) error {
	closer, ok := s.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
