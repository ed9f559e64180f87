package printer

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/printerd/internal/config"
)

// Module wires the device opener and connection manager.
var Module = fx.Provide(
	NewOpener,
	newManager,
)

// NewOpener selects the opener for the configured connection type.
func NewOpener(cfg *config.Config) Opener {
	if cfg.PrinterType == config.PrinterTypeSerial {
		return NewSerialOpener(cfg.SerialPort, cfg.BaudRate)
	}
	return NewUSBOpener(cfg.VendorID, cfg.ProductID)
}

func newManager(opener Opener, cfg *config.Config, logger *slog.Logger) *Manager {
	return NewManager(opener, Options{PrintTimeout: cfg.PrintTimeout}, logger)
}
