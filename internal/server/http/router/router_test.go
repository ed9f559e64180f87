package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"

	"github.com/polkiloo/printerd/internal/domain/model"
	"github.com/polkiloo/printerd/internal/server/http/handlers"
	testhelpers "github.com/polkiloo/printerd/internal/test"
)

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := Setup(testhelpers.PrinterFacadeStub{}, logger)

	for _, path := range []string{"/health", "/printer/status", "/printer/queue", "/printer/metrics"} {
		resp := httptest.NewRecorder()
		engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200 for %s, got %d", path, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/user/orders", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", resp.Code)
	}
}

func TestSetupAcceptsGzipCommand(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	var submitted model.CommandType
	facade := testhelpers.PrinterFacadeStub{
		SubmitFn: func(_ context.Context, cmdType model.CommandType, orderID string) (*model.PrinterCommand, error) {
			submitted = cmdType
			return &model.PrinterCommand{ID: "c1", Type: cmdType}, nil
		},
	}
	engine := Setup(facade, logger)

	payload, _ := json.Marshal(map[string]string{"command_type": "test"})
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write(payload)
	_ = gz.Close()

	req := httptest.NewRequest(http.MethodPost, "/printer/commands", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}
	if submitted != model.CommandTest {
		t.Fatalf("expected test command, got %q", submitted)
	}
}

var _ handlers.PrinterFacade = (*testhelpers.PrinterFacadeStub)(nil)
