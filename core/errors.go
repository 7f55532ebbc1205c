package core

import "errors"

var (
	// Pin / GPIO
	ErrInvalidPin       = errors.New("invalid_pin")
	ErrInvalidPinConfig = errors.New("invalid_pin_config")
	ErrUnknownDebugPort = errors.New("unknown_debug_port")

	// Clock
	ErrInvalidPlan = errors.New("invalid_clock_plan")

	// Serial
	ErrUnknownUSART   = errors.New("unknown_usart")
	ErrInvalidBaud    = errors.New("invalid_baud")
	ErrBaudOutOfRange = errors.New("baud_out_of_range")
	ErrTxTimeout      = errors.New("tx_timeout")
	ErrNoData         = errors.New("no_data")
)
