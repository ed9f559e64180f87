package printer

import (
	"context"
	"io"

	"github.com/polkiloo/printerd/internal/domain/model"
)

// Device is an open printer handle.
type Device interface {
	io.Writer
	io.Closer
}

// Opener opens the configured printer.
type Opener interface {
	Open(ctx context.Context) (Device, error)
	Type() model.ConnectionType
}

// drainer is implemented by devices that buffer writes.
type drainer interface {
	Drain() error
}
