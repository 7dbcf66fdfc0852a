package storage

import "errors"

// ErrUnavailable indicates the backend cannot currently serve requests.
// The engine treats it as a persistent failure rather than retrying.
var ErrUnavailable = errors.New("storage: backend unavailable")
