package errors

import "errors"

var (
	ErrAlreadyExists    = errors.New("already exists")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyProcessed = errors.New("command already processed")
	ErrPrinterNotReady  = errors.New("printer not initialised")
	ErrUnknownCommand   = errors.New("unknown command type")
	ErrInvalidCommand   = errors.New("invalid command")
)
