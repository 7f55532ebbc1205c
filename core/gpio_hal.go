package core

// GPIODriver is the pin interface the rest of the firmware programs against.
// *GPIO is the register-backed implementation; tests may substitute a mock.
type GPIODriver interface {
	// Configure applies mode, CNF and optional pull to a pin
	Configure(pin Pin, cfg PinConfig) error

	// Set drives the pin high (true) or low (false)
	Set(pin Pin, high bool) error

	// Get reads the input level of the pin
	Get(pin Pin) (bool, error)
}

// Global singleton used by core code.
var gpioDriver GPIODriver

// SetGPIODriver is called by the entry routine to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}
