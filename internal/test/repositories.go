package test

import (
	"context"
	"sync"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
	"github.com/polkiloo/printerd/internal/domain/repository"
)

// PrintResultCall stores information about UpdatePrintResult invocations.
type PrintResultCall struct {
	OrderID string
	Result  model.PrintResult
}

// OrderRepositoryStub keeps orders in memory and records print results.
type OrderRepositoryStub struct {
	GetByIDFn           func(context.Context, string) (*model.Order, error)
	UpdatePrintResultFn func(context.Context, string, model.PrintResult) error

	Orders map[string]model.Order

	mu      sync.Mutex
	Updates []PrintResultCall
}

// GetByID returns a copy of the stored order or not found.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id string) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.Orders[id]; ok {
		return &order, nil
	}
	return nil, domainErrors.ErrNotFound
}

// UpdatePrintResult records the call before delegating to the override.
func (s *OrderRepositoryStub) UpdatePrintResult(ctx context.Context, id string, result model.PrintResult) error {
	s.mu.Lock()
	s.Updates = append(s.Updates, PrintResultCall{OrderID: id, Result: result})
	s.mu.Unlock()
	if s.UpdatePrintResultFn != nil {
		return s.UpdatePrintResultFn(ctx, id, result)
	}
	return nil
}

// UpdateCalls returns a snapshot of recorded updates.
func (s *OrderRepositoryStub) UpdateCalls() []PrintResultCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PrintResultCall(nil), s.Updates...)
}

// CommandRepositoryStub tracks created and processed commands.
type CommandRepositoryStub struct {
	CreateFn        func(context.Context, *model.PrinterCommand) error
	MarkProcessedFn func(context.Context, string) error

	mu        sync.Mutex
	Created   []model.PrinterCommand
	Processed []string
}

// Create stores the command unless the override fails.
func (s *CommandRepositoryStub) Create(ctx context.Context, cmd *model.PrinterCommand) error {
	if s.CreateFn != nil {
		if err := s.CreateFn(ctx, cmd); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Created = append(s.Created, *cmd)
	return nil
}

// MarkProcessed records id and reports repeated calls as already processed.
func (s *CommandRepositoryStub) MarkProcessed(ctx context.Context, id string) error {
	if s.MarkProcessedFn != nil {
		return s.MarkProcessedFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Processed {
		if p == id {
			return domainErrors.ErrAlreadyProcessed
		}
	}
	s.Processed = append(s.Processed, id)
	return nil
}

// ProcessedIDs returns a snapshot of processed command ids.
func (s *CommandRepositoryStub) ProcessedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Processed...)
}

// StatusRepositoryStub records saved snapshots.
type StatusRepositoryStub struct {
	Err error

	mu    sync.Mutex
	Saved []model.StatusSnapshot
}

// SaveStatus appends snapshot or returns the configured error.
func (s *StatusRepositoryStub) SaveStatus(ctx context.Context, snapshot model.StatusSnapshot) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saved = append(s.Saved, snapshot)
	return nil
}

// Snapshots returns a copy of saved snapshots.
func (s *StatusRepositoryStub) Snapshots() []model.StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.StatusSnapshot(nil), s.Saved...)
}

// OrderFeedStub delegates subscriptions to SubscribeFn or blocks until ctx
// is done after replaying Events.
type OrderFeedStub struct {
	SubscribeFn func(context.Context, int, func(model.OrderEvent)) error
	Events      []model.OrderEvent
}

// SubscribeOrders implements repository.OrderFeed.
func (s *OrderFeedStub) SubscribeOrders(ctx context.Context, limit int, handler func(model.OrderEvent)) error {
	if s.SubscribeFn != nil {
		return s.SubscribeFn(ctx, limit, handler)
	}
	for _, ev := range s.Events {
		handler(ev)
	}
	<-ctx.Done()
	return ctx.Err()
}

// CommandFeedStub mirrors OrderFeedStub for commands.
type CommandFeedStub struct {
	SubscribeFn func(context.Context, func(model.PrinterCommand)) error
	Commands    []model.PrinterCommand
}

// SubscribeCommands implements repository.CommandFeed.
func (s *CommandFeedStub) SubscribeCommands(ctx context.Context, handler func(model.PrinterCommand)) error {
	if s.SubscribeFn != nil {
		return s.SubscribeFn(ctx, handler)
	}
	for _, cmd := range s.Commands {
		handler(cmd)
	}
	<-ctx.Done()
	return ctx.Err()
}

// FactoryStub bundles the stubs behind repository.Factory.
type FactoryStub struct {
	OrderRepo   *OrderRepositoryStub
	OrderSource *OrderFeedStub
	CommandRepo *CommandRepositoryStub
	CommandSrc  *CommandFeedStub
	StatusRepo  *StatusRepositoryStub
	HealthErr   error
}

// NewFactoryStub constructs a factory with empty stubs.
func NewFactoryStub() *FactoryStub {
	return &FactoryStub{
		OrderRepo:   &OrderRepositoryStub{Orders: map[string]model.Order{}},
		OrderSource: &OrderFeedStub{},
		CommandRepo: &CommandRepositoryStub{},
		CommandSrc:  &CommandFeedStub{},
		StatusRepo:  &StatusRepositoryStub{},
	}
}

func (f *FactoryStub) Orders() repository.OrderRepository     { return f.OrderRepo }
func (f *FactoryStub) OrderFeed() repository.OrderFeed         { return f.OrderSource }
func (f *FactoryStub) Commands() repository.CommandRepository { return f.CommandRepo }
func (f *FactoryStub) CommandFeed() repository.CommandFeed     { return f.CommandSrc }
func (f *FactoryStub) Status() repository.StatusRepository     { return f.StatusRepo }
func (f *FactoryStub) HealthCheck(ctx context.Context) error   { return f.HealthErr }

var _ repository.Factory = (*FactoryStub)(nil)
