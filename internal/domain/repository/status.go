package repository

import (
	"context"

	"github.com/polkiloo/printerd/internal/domain/model"
)

// StatusRepository stores the single printer status document.
type StatusRepository interface {
	SaveStatus(ctx context.Context, snapshot model.StatusSnapshot) error
}
