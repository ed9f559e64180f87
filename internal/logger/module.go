package logger

import (
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/printerd/internal/config"
)

// Module provides the service logger and records the effective settings.
var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(logConfig),
)

func logConfig(cfg *config.Config, logger *slog.Logger) {
	printer := slog.String("device", cfg.SerialPort)
	if cfg.PrinterType != config.PrinterTypeSerial {
		printer = slog.String("device", fmt.Sprintf("%04x:%04x", cfg.VendorID, cfg.ProductID))
	}
	logger.Info("configuration loaded",
		slog.String("addr", cfg.Address()),
		slog.String("store", cfg.StoreDriver),
		slog.String("printer_type", cfg.PrinterType),
		printer,
		slog.Bool("nats", cfg.NATSURL != ""),
		slog.Duration("print_timeout", cfg.PrintTimeout),
	)
}
