package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/polkiloo/printerd/internal/domain/model"
)

const statusDocumentID = "main"

// SaveStatus replaces the single status document, creating it on first use.
func (r *statusRepository) SaveStatus(ctx context.Context, snapshot model.StatusSnapshot) error {
	_, err := r.store.status.ReplaceOne(ctx, bson.M{"_id": statusDocumentID}, snapshot, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("cannot save printer status: %w", err)
	}
	return nil
}
