package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
)

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var doc orderDocument
	if err := r.store.orders.FindOne(ctx, idFilter(id)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("cannot find order: %w", err)
	}
	order, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdatePrintResult sets only the print fields, leaving the rest of the
// document as the website wrote it.
func (r *orderRepository) UpdatePrintResult(ctx context.Context, id string, result model.PrintResult) error {
	set := bson.M{
		"printed":           result.Printed,
		"print_retry_count": result.PrintRetryCount,
	}
	update := bson.M{"$set": set}
	if result.PrintTimestamp != nil {
		set["print_timestamp"] = *result.PrintTimestamp
	}
	if result.PrintError != "" {
		set["print_error"] = result.PrintError
	} else {
		update["$unset"] = bson.M{"print_error": ""}
	}

	res, err := r.store.orders.UpdateOne(ctx, idFilter(id), update)
	if err != nil {
		return fmt.Errorf("cannot update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) recent(ctx context.Context, limit int) ([]model.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.store.orders.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	orders := make([]model.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := doc.toModel()
		if err != nil {
			r.store.logger.Warn("skipping malformed order", slog.String("error", err.Error()))
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

type changeEvent struct {
	OperationType string        `bson:"operationType"`
	FullDocument  bson.RawValue `bson:"fullDocument"`
	DocumentKey   bson.RawValue `bson:"documentKey"`
}

func (e changeEvent) key() (string, error) {
	doc, ok := e.DocumentKey.DocumentOK()
	if !ok {
		return "", errors.New("change event without document key")
	}
	return idString(doc.Lookup("_id"))
}

// SubscribeOrders opens the change stream before reading the snapshot so
// inserts in between are not lost.
func (r *orderRepository) SubscribeOrders(ctx context.Context, limit int, handler func(model.OrderEvent)) error {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.store.orders.Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return fmt.Errorf("cannot watch orders: %w", err)
	}
	defer stream.Close(context.WithoutCancel(ctx))

	snapshot, err := r.recent(ctx, limit)
	if err != nil {
		return err
	}
	for i := len(snapshot) - 1; i >= 0; i-- {
		handler(model.OrderEvent{Type: model.OrderAdded, Order: snapshot[i]})
	}

	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			r.store.logger.Warn("malformed change event", slog.String("error", err.Error()))
			continue
		}
		if event, ok := r.toOrderEvent(ev); ok {
			handler(event)
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("order change stream: %w", err)
	}
	return errors.New("order change stream closed")
}

func (r *orderRepository) toOrderEvent(ev changeEvent) (model.OrderEvent, bool) {
	var eventType model.OrderEventType
	switch ev.OperationType {
	case "insert":
		eventType = model.OrderAdded
	case "update", "replace":
		eventType = model.OrderModified
	case "delete":
		id, err := ev.key()
		if err != nil {
			return model.OrderEvent{}, false
		}
		return model.OrderEvent{Type: model.OrderRemoved, Order: model.Order{ID: id}}, true
	default:
		return model.OrderEvent{}, false
	}

	if ev.FullDocument.Type != bsontype.EmbeddedDocument {
		return model.OrderEvent{}, false
	}
	var doc orderDocument
	if err := ev.FullDocument.Unmarshal(&doc); err != nil {
		r.store.logger.Warn("malformed order document", slog.String("error", err.Error()))
		return model.OrderEvent{}, false
	}
	order, err := doc.toModel()
	if err != nil {
		r.store.logger.Warn("malformed order document", slog.String("error", err.Error()))
		return model.OrderEvent{}, false
	}
	return model.OrderEvent{Type: eventType, Order: order}, true
}
