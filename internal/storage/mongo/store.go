package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/polkiloo/printerd/internal/domain/repository"
)

const (
	ordersCollection   = "orders"
	commandsCollection = "printer_commands"
	statusCollection   = "printer_status"
)

// Store is the MongoDB backed repository factory. Feeds use change streams,
// so the server must run as a replica set.
type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	orders   *mongo.Collection
	commands *mongo.Collection
	status   *mongo.Collection
	logger   *slog.Logger
}

type orderRepository struct {
	store *Store
}

type commandRepository struct {
	store *Store
}

type statusRepository struct {
	store *Store
}

// New connects, pings and ensures indexes.
func New(ctx context.Context, uri, dbName string, logger *slog.Logger) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	store := newStore(client.Database(dbName), logger)
	store.client = client
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("connected to MongoDB", slog.String("database", dbName))
	return store, nil
}

func newStore(db *mongo.Database, logger *slog.Logger) *Store {
	return &Store{
		db:       db,
		orders:   db.Collection(ordersCollection),
		commands: db.Collection(commandsCollection),
		status:   db.Collection(statusCollection),
		logger:   logger,
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("cannot create created_at index: %w", err)
	}
	if _, err := s.commands.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "processed", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("cannot create processed index: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client != nil {
		if err := s.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		s.logger.Info("disconnected from MongoDB")
	}
	return nil
}

// HealthCheck pings the primary.
func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.Client().Ping(ctx, nil)
}

func (s *Store) Orders() repository.OrderRepository {
	return &orderRepository{store: s}
}

func (s *Store) OrderFeed() repository.OrderFeed {
	return &orderRepository{store: s}
}

func (s *Store) Commands() repository.CommandRepository {
	return &commandRepository{store: s}
}

func (s *Store) CommandFeed() repository.CommandFeed {
	return &commandRepository{store: s}
}

func (s *Store) Status() repository.StatusRepository {
	return &statusRepository{store: s}
}

var _ repository.Factory = (*Store)(nil)
