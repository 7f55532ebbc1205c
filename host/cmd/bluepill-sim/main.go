package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bluepill/config"
	"bluepill/core"
	"bluepill/host/console"
	"bluepill/host/serial"
)

var (
	configPath = flag.String("config", "", "Board configuration (JSON)")
	trace      = flag.Bool("trace", false, "Print every register access made during boot")
	events     = flag.Bool("events", false, "Dump the event ring after boot")
	echo       = flag.String("echo", "", "Run an echo check with this text after boot")
	timeout    = flag.Duration("timeout", 2*time.Second, "Timeout for the echo check")
	debug      = flag.Bool("debug", false, "Print firmware debug output")
)

func main() {
	flag.Parse()

	board := config.Default()
	if *configPath != "" {
		var err error
		board, err = config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	appCfg, err := board.AppConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sim := core.NewF103Sim()
	core.SetDebugWriter(func(s string) { fmt.Println(s) })
	core.SetDebugEnabled(*debug)
	core.InitAsyncDebug()
	app := core.NewApp(sim, appCfg)
	if err := app.Boot(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: boot failed: %v\n", err)
		core.DumpEvents()
		os.Exit(1)
	}

	clocks := app.Clocks()
	fmt.Printf("SYSCLK %s  PCLK1 %s  PCLK2 %s\n", clocks.SYSCLK, clocks.PCLK1, clocks.PCLK2)
	fmt.Printf("Console %s at %d baud (BRR 0x%X)\n",
		app.Console().USART(), app.Console().BaudRate(), sim.Peek(app.Console().USART().BRR()))
	fmt.Printf("Console output: %q\n", sim.TxBytes(app.Console().USART()))

	if *trace {
		printTrace(sim.Trace())
	}
	if *events {
		core.DumpEvents()
	}

	if *echo != "" {
		if err := echoCheck(sim, app, []byte(*echo)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Echo OK")
	}
}

func echoCheck(sim *core.F103Sim, app *core.App, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	port := serial.NewSimPort(sim, app.Console().USART(), 10*time.Millisecond)
	if err := port.Flush(); err != nil {
		return err
	}
	c := console.New(port)
	err := c.Echo(ctx, payload)
	c.Close()
	cancel()
	<-done
	return err
}

func printTrace(trace []core.Access) {
	fmt.Printf("Register trace (%d accesses):\n", len(trace))
	for i, a := range trace {
		op := "R"
		if a.Write {
			op = "W"
		}
		fmt.Printf("%5d %s 0x%08X = 0x%08X\n", i, op, uint32(a.Reg), a.Value)
	}
}
