package core

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

var errPWMUnsupported = errors.New("pwm_unsupported")

// OutputPin is a push-pull output bound to a driver. It implements
// periph.io's gpio.PinOut so LED and indicator code can stay board-agnostic.
type OutputPin struct {
	drv       GPIODriver
	pin       Pin
	activeLow bool
	level     gpio.Level
}

var _ gpio.PinOut = (*OutputPin)(nil)

// NewOutputPin configures pin as a general purpose push-pull output and
// drives it to its inactive level. activeLow inverts the logical level, as
// for the PC13 LED on a Blue Pill which lights when the pin is low.
func NewOutputPin(drv GPIODriver, pin Pin, mode Mode, activeLow bool) (*OutputPin, error) {
	if mode == ModeInput {
		return nil, ErrInvalidPinConfig
	}
	o := &OutputPin{drv: drv, pin: pin, activeLow: activeLow}
	if err := drv.Configure(pin, PinConfig{Config: ConfigAnalogOrPushPull, Mode: mode}); err != nil {
		return nil, err
	}
	if err := o.Out(gpio.Low); err != nil {
		return nil, err
	}
	return o, nil
}

// String implements conn.Resource
func (o *OutputPin) String() string { return o.pin.String() }

// Halt implements conn.Resource. It drives the pin inactive.
func (o *OutputPin) Halt() error { return o.Out(gpio.Low) }

// Name returns the board name of the pin, e.g. "PC13"
func (o *OutputPin) Name() string { return o.pin.String() }

// Number returns port*16 + pin
func (o *OutputPin) Number() int { return int(o.pin.Port)*16 + int(o.pin.Num) }

// Deprecated: returns "Out"
func (o *OutputPin) Function() string { return "Out" }

// Out drives the logical level l
func (o *OutputPin) Out(l gpio.Level) error {
	if err := o.drv.Set(o.pin, bool(l) != o.activeLow); err != nil {
		return err
	}
	o.level = l
	return nil
}

// Not implemented.
func (o *OutputPin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errPWMUnsupported
}

// Level returns the last logical level driven
func (o *OutputPin) Level() gpio.Level { return o.level }

// Toggle inverts the logical level
func (o *OutputPin) Toggle() error { return o.Out(!o.level) }

// Pin returns the underlying descriptor
func (o *OutputPin) Pin() Pin { return o.pin }
