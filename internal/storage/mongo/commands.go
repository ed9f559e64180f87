package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
)

func (r *commandRepository) Create(ctx context.Context, cmd *model.PrinterCommand) error {
	doc := bson.M{
		"_id":          cmd.ID,
		"command_type": string(cmd.Type),
		"processed":    false,
		"created_at":   cmd.CreatedAt,
	}
	if cmd.OrderID != "" {
		doc["order_id"] = cmd.OrderID
	}
	if _, err := r.store.commands.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainErrors.ErrAlreadyExists
		}
		return fmt.Errorf("cannot insert command: %w", err)
	}
	return nil
}

// MarkProcessed matches only unprocessed documents, so the flag flips once.
func (r *commandRepository) MarkProcessed(ctx context.Context, id string) error {
	filter := idFilter(id)
	filter["processed"] = bson.M{"$ne": true}
	update := bson.M{"$set": bson.M{"processed": true, "processed_at": time.Now().UTC()}}

	res, err := r.store.commands.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update command: %w", err)
	}
	if res.MatchedCount == 0 {
		return domainErrors.ErrAlreadyProcessed
	}
	return nil
}

func (r *commandRepository) pending(ctx context.Context) ([]model.PrinterCommand, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.store.commands.Find(ctx, bson.M{"processed": bson.M{"$ne": true}}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find commands: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []commandDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cannot decode commands: %w", err)
	}

	result := make([]model.PrinterCommand, 0, len(docs))
	for _, doc := range docs {
		cmd, err := doc.toModel()
		if err != nil {
			r.store.logger.Warn("skipping malformed command", slog.String("error", err.Error()))
			continue
		}
		result = append(result, cmd)
	}
	return result, nil
}

// SubscribeCommands replays unprocessed commands and then follows inserts.
func (r *commandRepository) SubscribeCommands(ctx context.Context, handler func(model.PrinterCommand)) error {
	pipeline := mongo.Pipeline{bson.D{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}}}
	stream, err := r.store.commands.Watch(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("cannot watch commands: %w", err)
	}
	defer stream.Close(context.WithoutCancel(ctx))

	pending, err := r.pending(ctx)
	if err != nil {
		return err
	}
	for _, cmd := range pending {
		handler(cmd)
	}

	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil || ev.FullDocument.Type != bsontype.EmbeddedDocument {
			continue
		}
		var doc commandDocument
		if err := ev.FullDocument.Unmarshal(&doc); err != nil {
			r.store.logger.Warn("malformed command document", slog.String("error", err.Error()))
			continue
		}
		cmd, err := doc.toModel()
		if err != nil || cmd.Processed {
			continue
		}
		handler(cmd)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("command change stream: %w", err)
	}
	return errors.New("command change stream closed")
}
