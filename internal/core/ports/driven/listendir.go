package driven

import "context"

// ListenDirectory delivers files dropped into a watched directory.
type ListenDirectory interface {
	// Events emits the path of every file ready to load, starting with
	// files already present. The channel closes when ctx is done.
	Events(ctx context.Context) (<-chan string, error)

	// Archive moves a processed file out of the listen directory.
	Archive(path string) error

	// Close stops watching.
	Close() error
}
