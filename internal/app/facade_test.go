package app

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
	testhelpers "github.com/polkiloo/printerd/internal/test"
)

type printerStateStub struct {
	ready  bool
	status model.PrinterStatus
}

func (s printerStateStub) Status() model.PrinterStatus { return s.status }
func (s printerStateStub) Ready() bool                  { return s.ready }

type queueStateStub struct{ stats model.QueueStats }

func (s queueStateStub) Stats() model.QueueStats { return s.stats }

type metricsStub struct {
	values map[string]int64
	err    error
}

func (s metricsStub) Snapshot(context.Context) (map[string]int64, error) { return s.values, s.err }

func newFacade(printer printerStateStub) (*PrinterFacade, *testhelpers.CommandRepositoryStub) {
	commands := &testhelpers.CommandRepositoryStub{}
	facade := NewPrinterFacade(printer, queueStateStub{stats: model.QueueStats{QueueSize: 1, TotalPrintedCount: 4}}, commands, metricsStub{values: map[string]int64{"printerd.jobs.printed": 4}})
	facade.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600)) }
	facade.newID = func() string { return "cmd-1" }
	return facade, commands
}

func TestPrinterFacadeStatus(t *testing.T) {
	facade, _ := newFacade(printerStateStub{})
	if _, ready := facade.PrinterStatus(); ready {
		t.Fatal("expected not ready before initialization")
	}

	status := model.PrinterStatus{IsConnected: true, Type: model.ConnectionSerial, State: model.StateConnected}
	facade, _ = newFacade(printerStateStub{ready: true, status: status})
	got, ready := facade.PrinterStatus()
	if !ready || got != status {
		t.Fatalf("unexpected status %+v ready=%v", got, ready)
	}
	if stats := facade.QueueStats(); stats.TotalPrintedCount != 4 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestPrinterFacadeMetrics(t *testing.T) {
	facade, _ := newFacade(printerStateStub{})
	values, err := facade.Metrics(context.Background())
	if err != nil || values["printerd.jobs.printed"] != 4 {
		t.Fatalf("unexpected metrics %v err=%v", values, err)
	}

	facade = NewPrinterFacade(printerStateStub{}, queueStateStub{}, &testhelpers.CommandRepositoryStub{}, nil)
	values, err = facade.Metrics(context.Background())
	if err != nil || len(values) != 0 {
		t.Fatalf("expected empty metrics without reader, got %v err=%v", values, err)
	}
}

func TestSubmitReprintCommand(t *testing.T) {
	facade, commands := newFacade(printerStateStub{})
	orderID := testhelpers.RandomASCIIString(8, 24)

	cmd, err := facade.SubmitCommand(context.Background(), model.CommandReprint, orderID)
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if cmd.ID != "cmd-1" || cmd.OrderID != orderID || cmd.Processed {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if cmd.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", cmd.CreatedAt)
	}
	if len(commands.Created) != 1 || commands.Created[0].Type != model.CommandReprint {
		t.Fatalf("expected command to be stored, got %+v", commands.Created)
	}
}

func TestSubmitTestCommandDropsOrderID(t *testing.T) {
	facade, commands := newFacade(printerStateStub{})
	cmd, err := facade.SubmitCommand(context.Background(), model.CommandTest, "ignored")
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if cmd.OrderID != "" || commands.Created[0].OrderID != "" {
		t.Fatalf("expected no order id on test command, got %+v", cmd)
	}
}

func TestSubmitCommandValidation(t *testing.T) {
	facade, commands := newFacade(printerStateStub{})

	_, err := facade.SubmitCommand(context.Background(), model.CommandReprint, "")
	if !errors.Is(err, domainErrors.ErrInvalidCommand) {
		t.Fatalf("expected invalid command, got %v", err)
	}
	_, err = facade.SubmitCommand(context.Background(), model.CommandType("cut"), "o1")
	if !errors.Is(err, domainErrors.ErrUnknownCommand) {
		t.Fatalf("expected unknown command, got %v", err)
	}
	if len(commands.Created) != 0 {
		t.Fatalf("nothing should be stored, got %+v", commands.Created)
	}
}

func TestSubmitCommandStoreError(t *testing.T) {
	facade, commands := newFacade(printerStateStub{})
	commands.CreateFn = func(context.Context, *model.PrinterCommand) error { return domainErrors.ErrAlreadyExists }

	if _, err := facade.SubmitCommand(context.Background(), model.CommandTest, ""); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected store error, got %v", err)
	}
}
