package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"go.uber.org/fx"
)

// Config holds application level configuration loaded from a YAML file,
// environment variables and flags, in that order of precedence.
type Config struct {
	Host string
	Port int

	StoreDriver   string
	DatabaseURI   string
	MongoURI      string
	MongoDatabase string
	NATSURL       string

	PrinterType  string
	VendorID     uint16
	ProductID    uint16
	SerialPort   string
	BaudRate     int
	PrintTimeout time.Duration
	PrintWidth   int

	ReceiptTitle string
	Timezone     string
	Location     *time.Location

	StatusInterval  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"

	PrinterTypeUSB    = "usb"
	PrinterTypeSerial = "serial"
)

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 3001
	defaultMongoURI        = "mongodb://localhost:27017"
	defaultMongoDatabase   = "printerd"
	defaultVendorID        = 0x04b8
	defaultProductID       = 0x0202
	defaultSerialPort      = "/dev/ttyUSB0"
	defaultBaudRate        = 9600
	defaultPrintTimeout    = 10000 * time.Millisecond
	defaultPrintWidth      = 42
	defaultReceiptTitle    = "BESTELLUNG"
	defaultTimezone        = "Europe/Berlin"
	defaultStatusInterval  = 10 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultLogLevel        = "info"
)

// Module provides the loaded configuration.
var Module = fx.Provide(Load)

// Load parses configuration from flags, environment variables and the
// optional file named by CONFIG_FILE.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func defaults() *Config {
	return &Config{
		Host:            defaultHost,
		Port:            defaultPort,
		StoreDriver:     StoreDriverPostgres,
		MongoURI:        defaultMongoURI,
		MongoDatabase:   defaultMongoDatabase,
		PrinterType:     PrinterTypeUSB,
		VendorID:        defaultVendorID,
		ProductID:       defaultProductID,
		SerialPort:      defaultSerialPort,
		BaudRate:        defaultBaudRate,
		PrintTimeout:    defaultPrintTimeout,
		PrintWidth:      defaultPrintWidth,
		ReceiptTitle:    defaultReceiptTitle,
		Timezone:        defaultTimezone,
		StatusInterval:  defaultStatusInterval,
		ShutdownTimeout: defaultShutdownTimeout,
		LogLevel:        defaultLogLevel,
	}
}

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := defaults()

	if path, ok := lookup("CONFIG_FILE"); ok && path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	vendorID, err := getHex16(lookup, "PRINTER_VENDOR_ID", cfg.VendorID)
	if err != nil {
		return nil, err
	}
	productID, err := getHex16(lookup, "PRINTER_PRODUCT_ID", cfg.ProductID)
	if err != nil {
		return nil, err
	}

	cfg.Host = getString(lookup, "HOST", cfg.Host)
	cfg.Port = getInt(lookup, "PORT", cfg.Port)
	cfg.StoreDriver = getString(lookup, "STORE_DRIVER", cfg.StoreDriver)
	cfg.DatabaseURI = getString(lookup, "DATABASE_URI", cfg.DatabaseURI)
	cfg.MongoURI = getString(lookup, "MONGO_URI", cfg.MongoURI)
	cfg.MongoDatabase = getString(lookup, "MONGO_DATABASE", cfg.MongoDatabase)
	cfg.NATSURL = getString(lookup, "NATS_URL", cfg.NATSURL)
	cfg.PrinterType = getString(lookup, "PRINTER_TYPE", cfg.PrinterType)
	cfg.VendorID = vendorID
	cfg.ProductID = productID
	cfg.SerialPort = getString(lookup, "PRINTER_SERIAL_PORT", cfg.SerialPort)
	cfg.BaudRate = getInt(lookup, "PRINTER_BAUD_RATE", cfg.BaudRate)
	cfg.PrintTimeout = getMillis(lookup, "PRINT_TIMEOUT", cfg.PrintTimeout)
	cfg.PrintWidth = getInt(lookup, "PRINT_WIDTH", cfg.PrintWidth)
	cfg.ReceiptTitle = getString(lookup, "RECEIPT_TITLE", cfg.ReceiptTitle)
	cfg.Timezone = getString(lookup, "TIMEZONE", cfg.Timezone)
	cfg.StatusInterval = getDuration(lookup, "STATUS_INTERVAL", cfg.StatusInterval)
	cfg.ShutdownTimeout = getDuration(lookup, "SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.LogLevel = getString(lookup, "LOG_LEVEL", cfg.LogLevel)

	fs := flag.NewFlagSet("printerd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		address            = ""
		printTimeoutMs     = int(cfg.PrintTimeout / time.Millisecond)
		statusIntervalStr  = cfg.StatusInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&address, "a", address, "HTTP server listen address (host:port)")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "Order store driver (postgres|mongo)")
	fs.StringVar(&cfg.NATSURL, "nats", cfg.NATSURL, "NATS server URL, empty disables publishing")
	fs.StringVar(&cfg.PrinterType, "printer-type", cfg.PrinterType, "Printer connection (usb|serial)")
	fs.IntVar(&printTimeoutMs, "print-timeout", printTimeoutMs, "Device write timeout in milliseconds")
	fs.IntVar(&cfg.PrintWidth, "width", cfg.PrintWidth, "Receipt width in characters")
	fs.StringVar(&statusIntervalStr, "status-interval", statusIntervalStr, "Interval between status reports")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if address != "" {
		host, port, err := net.SplitHostPort(address)
		if err != nil {
			return nil, fmt.Errorf("invalid listen address: %w", err)
		}
		if cfg.Port, err = strconv.Atoi(port); err != nil {
			return nil, fmt.Errorf("invalid listen port: %w", err)
		}
		cfg.Host = host
	}

	cfg.PrintTimeout = time.Duration(printTimeoutMs) * time.Millisecond

	if cfg.StatusInterval, err = time.ParseDuration(statusIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid status interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	normalize(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if cfg.Location, err = time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	return cfg, nil
}

// Address returns the HTTP listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func normalize(cfg *Config) {
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.PrinterType = strings.ToLower(strings.TrimSpace(cfg.PrinterType))

	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = defaultBaudRate
	}
	if cfg.PrintTimeout <= 0 {
		cfg.PrintTimeout = defaultPrintTimeout
	}
	if cfg.PrintWidth <= 0 {
		cfg.PrintWidth = defaultPrintWidth
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = defaultStatusInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
}

func validate(cfg *Config) error {
	switch cfg.PrinterType {
	case PrinterTypeUSB, PrinterTypeSerial:
	default:
		return fmt.Errorf("unsupported printer type %q", cfg.PrinterType)
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURI == "" {
			return fmt.Errorf("database URI must be provided")
		}
	case StoreDriverMongo:
		if cfg.MongoURI == "" {
			return fmt.Errorf("mongo URI must be provided")
		}
	default:
		return fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	return nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getMillis(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getHex16 accepts USB ids written as 0x04b8 or 04b8.
func getHex16(lookup envLookup, key string, def uint16) (uint16, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	id, err := parseUSBID(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToLower(key), err)
	}
	return id, nil
}

func parseUSBID(v string) (uint16, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimPrefix(v, "0x")
	n, err := strconv.ParseUint(v, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}
