package printer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/gousb"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
)

// USBOpener opens a printer by vendor and product id and writes to the
// first bulk OUT endpoint of its default interface.
type USBOpener struct {
	VendorID  gousb.ID
	ProductID gousb.ID
}

// NewUSBOpener builds an opener for the given ids.
func NewUSBOpener(vendorID, productID uint16) *USBOpener {
	return &USBOpener{VendorID: gousb.ID(vendorID), ProductID: gousb.ID(productID)}
}

func (o *USBOpener) Type() model.ConnectionType { return model.ConnectionUSB }

func (o *USBOpener) Open(ctx context.Context) (Device, error) {
	usbCtx := gousb.NewContext()
	name := fmt.Sprintf("%s:%s", o.VendorID, o.ProductID)

	dev, err := usbCtx.OpenDeviceWithVIDPID(o.VendorID, o.ProductID)
	if err != nil {
		_ = usbCtx.Close()
		if errors.Is(err, gousb.ErrorNotFound) || errors.Is(err, gousb.ErrorNoDevice) {
			return nil, domainErrors.DeviceNotFoundError{Type: string(model.ConnectionUSB), Device: name, Err: err}
		}
		return nil, domainErrors.ConnectionError{Type: string(model.ConnectionUSB), Err: err}
	}
	if dev == nil {
		_ = usbCtx.Close()
		return nil, domainErrors.DeviceNotFoundError{Type: string(model.ConnectionUSB), Device: name}
	}

	if err := dev.SetAutoDetach(true); err != nil {
		_ = dev.Close()
		_ = usbCtx.Close()
		return nil, domainErrors.ConnectionError{Type: string(model.ConnectionUSB), Err: fmt.Errorf("detach kernel driver: %w", err)}
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		_ = dev.Close()
		_ = usbCtx.Close()
		return nil, domainErrors.ConnectionError{Type: string(model.ConnectionUSB), Err: fmt.Errorf("claim interface: %w", err)}
	}

	epNum, ok := bulkOutEndpoint(intf.Setting)
	if !ok {
		done()
		_ = dev.Close()
		_ = usbCtx.Close()
		return nil, domainErrors.ConnectionError{Type: string(model.ConnectionUSB), Err: errors.New("no bulk out endpoint")}
	}

	out, err := intf.OutEndpoint(epNum)
	if err != nil {
		done()
		_ = dev.Close()
		_ = usbCtx.Close()
		return nil, domainErrors.ConnectionError{Type: string(model.ConnectionUSB), Err: fmt.Errorf("open endpoint %d: %w", epNum, err)}
	}

	return &usbDevice{ctx: usbCtx, dev: dev, release: done, out: out}, nil
}

func bulkOutEndpoint(setting gousb.InterfaceSetting) (int, bool) {
	for _, ep := range setting.Endpoints {
		if ep.Direction == gousb.EndpointDirectionOut && ep.TransferType == gousb.TransferTypeBulk {
			return ep.Number, true
		}
	}
	return 0, false
}

type usbDevice struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	release func()
	out     *gousb.OutEndpoint
}

func (d *usbDevice) Write(p []byte) (int, error) {
	return d.out.Write(p)
}

func (d *usbDevice) Close() error {
	d.release()
	return errors.Join(d.dev.Close(), d.ctx.Close())
}
