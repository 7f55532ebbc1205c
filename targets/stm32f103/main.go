//go:build stm32f103

package main

import (
	"context"

	"bluepill/config"
	"bluepill/core"
)

func main() {
	cfg, err := config.Default().AppConfig()
	if err != nil {
		halt()
	}

	// The runtime has already brought SYSCLK to 72MHz from the same plan;
	// Boot re-runs the sequence, which leaves the clock tree as it is.
	app := core.NewApp(core.MMIO{}, cfg)
	if err := app.Boot(); err != nil {
		halt()
	}

	// Main loop: echo received bytes, forever
	_ = app.Run(context.Background())
	halt()
}

// halt parks the core. A debugger attached over SWD can read the event
// ring to find the step that failed.
func halt() {
	for {
	}
}
