package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polkiloo/printerd/internal/domain/repository"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL. Live feeds use
// LISTEN/NOTIFY on a dedicated connection per subscription.
type Storage struct {
	pool   pgxPool
	dsn    string
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type commandRepository struct {
	storage *Storage
}

type statusRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, dsn: dsn, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) OrderFeed() repository.OrderFeed {
	return &orderRepository{storage: s}
}

func (s *Storage) Commands() repository.CommandRepository {
	return &commandRepository{storage: s}
}

func (s *Storage) CommandFeed() repository.CommandFeed {
	return &commandRepository{storage: s}
}

func (s *Storage) Status() repository.StatusRepository {
	return &statusRepository{storage: s}
}

const (
	ordersChannel   = "orders_changed"
	commandsChannel = "printer_commands_created"
)

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            customer_name TEXT,
            customer_phone TEXT,
            delivery_address TEXT,
            items JSONB NOT NULL DEFAULT '[]',
            notes TEXT,
            total_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
            printed BOOLEAN NOT NULL DEFAULT FALSE,
            print_timestamp TIMESTAMPTZ,
            print_retry_count INTEGER NOT NULL DEFAULT 0,
            print_error TEXT
        )`,
		`CREATE TABLE IF NOT EXISTS printer_commands (
            id TEXT PRIMARY KEY,
            command_type TEXT NOT NULL,
            order_id TEXT,
            processed BOOLEAN NOT NULL DEFAULT FALSE,
            processed_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS printer_status (
            id TEXT PRIMARY KEY,
            connected BOOLEAN NOT NULL,
            connection_type TEXT NOT NULL,
            last_update TIMESTAMPTZ NOT NULL,
            queue_size INTEGER NOT NULL,
            total_printed_count INTEGER NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_printer_commands_pending ON printer_commands(created_at) WHERE processed = FALSE`,
		`CREATE OR REPLACE FUNCTION notify_orders_changed() RETURNS trigger AS $$
        BEGIN
            IF TG_OP = 'DELETE' THEN
                PERFORM pg_notify('` + ordersChannel + `', json_build_object('op', TG_OP, 'id', OLD.id)::text);
                RETURN OLD;
            END IF;
            PERFORM pg_notify('` + ordersChannel + `', json_build_object('op', TG_OP, 'id', NEW.id)::text);
            RETURN NEW;
        END;
        $$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS orders_changed ON orders`,
		`CREATE TRIGGER orders_changed AFTER INSERT OR UPDATE OR DELETE ON orders
            FOR EACH ROW EXECUTE FUNCTION notify_orders_changed()`,
		`CREATE OR REPLACE FUNCTION notify_printer_command() RETURNS trigger AS $$
        BEGIN
            PERFORM pg_notify('` + commandsChannel + `', NEW.id);
            RETURN NEW;
        END;
        $$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS printer_commands_created ON printer_commands`,
		`CREATE TRIGGER printer_commands_created AFTER INSERT ON printer_commands
            FOR EACH ROW EXECUTE FUNCTION notify_printer_command()`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}

var _ repository.Factory = (*Storage)(nil)
