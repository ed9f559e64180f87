package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML layout accepted through CONFIG_FILE.
type fileConfig struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Store struct {
		Driver        string `yaml:"driver"`
		DatabaseURI   string `yaml:"database_uri"`
		MongoURI      string `yaml:"mongo_uri"`
		MongoDatabase string `yaml:"mongo_database"`
	} `yaml:"store"`

	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	Printer struct {
		Type           string `yaml:"type"`
		VendorID       string `yaml:"vendor_id"`
		ProductID      string `yaml:"product_id"`
		SerialPort     string `yaml:"serial_port"`
		BaudRate       int    `yaml:"baud_rate"`
		PrintTimeoutMs int    `yaml:"print_timeout_ms"`
		Width          int    `yaml:"width"`
	} `yaml:"printer"`

	Receipt struct {
		Title    string `yaml:"title"`
		Timezone string `yaml:"timezone"`
	} `yaml:"receipt"`

	StatusInterval  string `yaml:"status_interval"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	LogLevel        string `yaml:"log_level"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&cfg.Host, fc.Server.Host)
	setInt(&cfg.Port, fc.Server.Port)
	setString(&cfg.StoreDriver, fc.Store.Driver)
	setString(&cfg.DatabaseURI, fc.Store.DatabaseURI)
	setString(&cfg.MongoURI, fc.Store.MongoURI)
	setString(&cfg.MongoDatabase, fc.Store.MongoDatabase)
	setString(&cfg.NATSURL, fc.NATS.URL)
	setString(&cfg.PrinterType, fc.Printer.Type)
	setString(&cfg.SerialPort, fc.Printer.SerialPort)
	setInt(&cfg.BaudRate, fc.Printer.BaudRate)
	setInt(&cfg.PrintWidth, fc.Printer.Width)
	setString(&cfg.ReceiptTitle, fc.Receipt.Title)
	setString(&cfg.Timezone, fc.Receipt.Timezone)
	setString(&cfg.LogLevel, fc.LogLevel)

	if fc.Printer.PrintTimeoutMs > 0 {
		cfg.PrintTimeout = time.Duration(fc.Printer.PrintTimeoutMs) * time.Millisecond
	}
	if fc.Printer.VendorID != "" {
		if cfg.VendorID, err = parseUSBID(fc.Printer.VendorID); err != nil {
			return fmt.Errorf("invalid printer.vendor_id: %w", err)
		}
	}
	if fc.Printer.ProductID != "" {
		if cfg.ProductID, err = parseUSBID(fc.Printer.ProductID); err != nil {
			return fmt.Errorf("invalid printer.product_id: %w", err)
		}
	}
	if fc.StatusInterval != "" {
		if cfg.StatusInterval, err = time.ParseDuration(fc.StatusInterval); err != nil {
			return fmt.Errorf("invalid status_interval: %w", err)
		}
	}
	if fc.ShutdownTimeout != "" {
		if cfg.ShutdownTimeout, err = time.ParseDuration(fc.ShutdownTimeout); err != nil {
			return fmt.Errorf("invalid shutdown_timeout: %w", err)
		}
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
