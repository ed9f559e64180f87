package printer

import (
	"context"
	"errors"
	"io/fs"

	"go.bug.st/serial"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
)

// SerialOpener opens a printer on a serial port with 8N1 framing.
type SerialOpener struct {
	Path     string
	BaudRate int
}

// NewSerialOpener builds an opener for path.
func NewSerialOpener(path string, baudRate int) *SerialOpener {
	return &SerialOpener{Path: path, BaudRate: baudRate}
}

func (o *SerialOpener) Type() model.ConnectionType { return model.ConnectionSerial }

func (o *SerialOpener) Open(ctx context.Context) (Device, error) {
	port, err := serial.Open(o.Path, o.mode())
	if err != nil {
		var portErr *serial.PortError
		if errors.Is(err, fs.ErrNotExist) ||
			(errors.As(err, &portErr) && (portErr.Code() == serial.PortNotFound || portErr.Code() == serial.InvalidSerialPort)) {
			return nil, domainErrors.DeviceNotFoundError{Type: string(model.ConnectionSerial), Device: o.Path, Err: err}
		}
		return nil, domainErrors.ConnectionError{Type: string(model.ConnectionSerial), Err: err}
	}
	return port, nil
}

func (o *SerialOpener) mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: o.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}
