package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
	testhelpers "github.com/polkiloo/printerd/internal/test"
)

type directPrinterStub struct {
	printed []string
	tests   int
	err     error
}

func (s *directPrinterStub) PrintNow(_ context.Context, order model.Order) error {
	s.printed = append(s.printed, order.ID)
	return s.err
}

func (s *directPrinterStub) TestPrint(context.Context) error {
	s.tests++
	return s.err
}

func newCommandFixture(orders map[string]model.Order) (*CommandHandler, *directPrinterStub, *testhelpers.CommandRepositoryStub) {
	printer := &directPrinterStub{}
	commands := &testhelpers.CommandRepositoryStub{}
	h := NewCommandHandler(&testhelpers.OrderRepositoryStub{Orders: orders}, commands, printer, discardLogger())
	return h, printer, commands
}

func TestCommandHandlerReprint(t *testing.T) {
	h, printer, commands := newCommandFixture(map[string]model.Order{"a": testOrder("a")})

	err := h.Handle(context.Background(), model.PrinterCommand{ID: "1", Type: model.CommandReprint, OrderID: "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, printer.printed)
	assert.Equal(t, []string{"1"}, commands.ProcessedIDs())
}

func TestCommandHandlerTestPrint(t *testing.T) {
	h, printer, commands := newCommandFixture(nil)

	require.NoError(t, h.Handle(context.Background(), model.PrinterCommand{ID: "1", Type: model.CommandTest}))
	assert.Equal(t, 1, printer.tests)
	assert.Equal(t, []string{"1"}, commands.ProcessedIDs())
}

func TestCommandHandlerMissingOrderStaysUnprocessed(t *testing.T) {
	h, printer, commands := newCommandFixture(nil)
	cmd := model.PrinterCommand{ID: "1", Type: model.CommandReprint, OrderID: "missing"}

	err := h.Handle(context.Background(), cmd)
	var notFound domainErrors.OrderNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.OrderID)
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
	assert.Empty(t, printer.printed)
	assert.Empty(t, commands.ProcessedIDs())

	// the command can be picked up again once the order exists
	err = h.Handle(context.Background(), cmd)
	require.ErrorAs(t, err, &notFound)
}

func TestCommandHandlerPrintFailureStillMarksProcessed(t *testing.T) {
	h, printer, commands := newCommandFixture(nil)
	printer.err = errors.New("offline")

	err := h.Handle(context.Background(), model.PrinterCommand{ID: "1", Type: model.CommandTest})
	var procErr domainErrors.CommandProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "1", procErr.CommandID)
	assert.Equal(t, []string{"1"}, commands.ProcessedIDs())
}

func TestCommandHandlerUnknownType(t *testing.T) {
	h, _, commands := newCommandFixture(nil)

	err := h.Handle(context.Background(), model.PrinterCommand{ID: "1", Type: "feed-paper"})
	require.ErrorIs(t, err, domainErrors.ErrUnknownCommand)
	assert.Equal(t, []string{"1"}, commands.ProcessedIDs())
}

func TestCommandHandlerSkipsProcessedAndDuplicates(t *testing.T) {
	h, printer, commands := newCommandFixture(nil)

	require.NoError(t, h.Handle(context.Background(), model.PrinterCommand{ID: "1", Type: model.CommandTest, Processed: true}))
	assert.Zero(t, printer.tests)

	cmd := model.PrinterCommand{ID: "2", Type: model.CommandTest}
	require.NoError(t, h.Handle(context.Background(), cmd))
	require.NoError(t, h.Handle(context.Background(), cmd))
	assert.Equal(t, 1, printer.tests)
	assert.Equal(t, []string{"2"}, commands.ProcessedIDs())
}

func TestCommandHandlerIgnoresAlreadyProcessed(t *testing.T) {
	printer := &directPrinterStub{}
	commands := &testhelpers.CommandRepositoryStub{
		MarkProcessedFn: func(context.Context, string) error { return domainErrors.ErrAlreadyProcessed },
	}
	h := NewCommandHandler(&testhelpers.OrderRepositoryStub{}, commands, printer, discardLogger())

	assert.NoError(t, h.Handle(context.Background(), model.PrinterCommand{ID: "1", Type: model.CommandTest}))
}

func TestCommandHandlerReportsMarkFailure(t *testing.T) {
	commands := &testhelpers.CommandRepositoryStub{
		MarkProcessedFn: func(context.Context, string) error { return errors.New("db down") },
	}
	h := NewCommandHandler(&testhelpers.OrderRepositoryStub{}, commands, &directPrinterStub{}, discardLogger())

	err := h.Handle(context.Background(), model.PrinterCommand{ID: "1", Type: model.CommandTest})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark command 1 processed")
}
