package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
	"github.com/polkiloo/printerd/internal/server/http/dto"
	testhelpers "github.com/polkiloo/printerd/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, path string, handler gin.HandlerFunc, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, path, handler)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body.String(), err)
	}
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func TestHealthReportsPrinterStatus(t *testing.T) {
	h := NewStatusHandler(testhelpers.PrinterFacadeStub{})
	h.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	resp := performRequest(t, http.MethodGet, "/health", h.Health, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Service   string              `json:"service"`
		Printer   model.PrinterStatus `json:"printer"`
		Timestamp time.Time           `json:"timestamp"`
	}
	decode(t, resp, &body)
	if body.Service != "running" {
		t.Fatalf("unexpected service %q", body.Service)
	}
	if !body.Printer.IsConnected || body.Printer.Type != model.ConnectionUSB {
		t.Fatalf("unexpected printer %+v", body.Printer)
	}
	if !body.Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", body.Timestamp)
	}
}

func TestHealthBeforeManagerReady(t *testing.T) {
	facade := testhelpers.PrinterFacadeStub{
		StatusFn: func() (model.PrinterStatus, bool) { return model.PrinterStatus{}, false },
	}
	resp := performRequest(t, http.MethodGet, "/health", NewStatusHandler(facade).Health, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body map[string]json.RawMessage
	decode(t, resp, &body)
	if got := string(body["printer"]); got != `{"isConnected":false}` {
		t.Fatalf("expected disconnected placeholder, got %s", got)
	}
}

func TestPrinterStatus(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/printer/status", NewStatusHandler(testhelpers.PrinterFacadeStub{}).Printer, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var status model.PrinterStatus
	decode(t, resp, &status)
	if status.State != model.StateConnected {
		t.Fatalf("unexpected state %q", status.State)
	}

	facade := testhelpers.PrinterFacadeStub{
		StatusFn: func() (model.PrinterStatus, bool) { return model.PrinterStatus{}, false },
	}
	resp = performRequest(t, http.MethodGet, "/printer/status", NewStatusHandler(facade).Printer, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	var errBody dto.ErrorResponse
	decode(t, resp, &errBody)
	if errBody.Error == "" {
		t.Fatalf("expected error message")
	}
}

func TestQueueStats(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/printer/queue", NewStatusHandler(testhelpers.PrinterFacadeStub{}).Queue, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var stats model.QueueStats
	decode(t, resp, &stats)
	if stats.QueueSize != 2 || stats.TotalPrintedCount != 7 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestMetrics(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/printer/metrics", NewStatusHandler(testhelpers.PrinterFacadeStub{}).Metrics, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var counters map[string]int64
	decode(t, resp, &counters)
	if counters["printerd.jobs.printed"] != 3 {
		t.Fatalf("unexpected counters %v", counters)
	}

	facade := testhelpers.PrinterFacadeStub{
		MetricsFn: func(context.Context) (map[string]int64, error) { return nil, errors.New("collect") },
	}
	resp = performRequest(t, http.MethodGet, "/printer/metrics", NewStatusHandler(facade).Metrics, nil, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestSubmitCommand(t *testing.T) {
	var gotType model.CommandType
	var gotOrder string
	facade := testhelpers.PrinterFacadeStub{
		SubmitFn: func(_ context.Context, cmdType model.CommandType, orderID string) (*model.PrinterCommand, error) {
			gotType, gotOrder = cmdType, orderID
			return &model.PrinterCommand{ID: "c1", Type: cmdType, OrderID: orderID, CreatedAt: time.Unix(0, 0).UTC()}, nil
		},
	}
	body, _ := json.Marshal(dto.CommandRequest{CommandType: "reprint", OrderID: " order-1 "})
	resp := performRequest(t, http.MethodPost, "/printer/commands", NewCommandHandler(facade).Submit, body, jsonHeaders)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if gotType != model.CommandReprint || gotOrder != "order-1" {
		t.Fatalf("unexpected submit args %q %q", gotType, gotOrder)
	}
	var created dto.CommandResponse
	decode(t, resp, &created)
	if created.ID != "c1" || created.OrderID != "order-1" {
		t.Fatalf("unexpected response %+v", created)
	}
}

func TestSubmitCommandBadRequest(t *testing.T) {
	handler := NewCommandHandler(testhelpers.PrinterFacadeStub{}).Submit

	resp := performRequest(t, http.MethodPost, "/printer/commands", handler, []byte("{"), jsonHeaders)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", resp.Code)
	}

	body, _ := json.Marshal(dto.CommandRequest{OrderID: "o1"})
	resp = performRequest(t, http.MethodPost, "/printer/commands", handler, body, jsonHeaders)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without command type, got %d", resp.Code)
	}
}

func TestSubmitCommandErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid", domainErrors.ErrInvalidCommand, http.StatusUnprocessableEntity},
		{"unknown", domainErrors.ErrUnknownCommand, http.StatusUnprocessableEntity},
		{"duplicate", domainErrors.ErrAlreadyExists, http.StatusConflict},
		{"store", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			facade := testhelpers.PrinterFacadeStub{
				SubmitFn: func(context.Context, model.CommandType, string) (*model.PrinterCommand, error) {
					return nil, tc.err
				},
			}
			body, _ := json.Marshal(dto.CommandRequest{CommandType: "reprint"})
			resp := performRequest(t, http.MethodPost, "/printer/commands", NewCommandHandler(facade).Submit, body, jsonHeaders)
			if resp.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, resp.Code)
			}
		})
	}
}

var _ PrinterFacade = testhelpers.PrinterFacadeStub{}
