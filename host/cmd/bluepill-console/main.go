package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bluepill/config"
	"bluepill/host/console"
	"bluepill/host/serial"
)

var (
	configPath = flag.String("config", "", "Board configuration (JSON)")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (overrides config)")
	check      = flag.Bool("check", false, "Wait for the boot banner, run an echo check and exit")
	timeout    = flag.Duration("timeout", 5*time.Second, "Timeout for -check and each interactive command")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
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
	if *device != "" {
		board.Device = *device
	}
	if *baud != 0 {
		board.Baud = uint32(*baud)
	}

	fmt.Println("Blue Pill Console")
	fmt.Println("=================")
	fmt.Println()

	cfg := serial.DefaultConfig(board.Device)
	cfg.Baud = int(board.Baud)
	fmt.Printf("Opening %s at %d baud...\n", cfg.Device, cfg.Baud)
	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	c := console.New(port)
	defer c.Close()

	if *check {
		if err := selfTest(c, board.Banner); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			c.Close()
			os.Exit(1)
		}
		return
	}

	interactive(c, board.Banner)
}

// selfTest expects a freshly reset board: banner, CR1, then echo
func selfTest(c *console.Console, banner string) error {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println("Waiting for banner (reset the board)...")
	b, err := c.WaitBanner(ctx, banner)
	if err != nil {
		return fmt.Errorf("banner: %w", err)
	}
	fmt.Printf("Banner: %s\n", b.Text)
	fmt.Printf("%s CR1: 0x%04X\n", b.USART, b.CR1)

	payload := []byte("bluepill echo check")
	if err := c.Echo(ctx, payload); err != nil {
		return fmt.Errorf("echo: %w", err)
	}
	fmt.Printf("Echo OK (%d bytes)\n", len(payload))
	return nil
}

func interactive(c *console.Console, banner string) {
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)

		switch cmd {
		case "quit", "exit", "q":
			cancel()
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "echo":
			if arg == "" {
				arg = "hello"
			}
			if err := c.Echo(ctx, []byte(arg)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			} else {
				fmt.Println("Echo OK")
			}

		case "send":
			if _, err := c.Write([]byte(arg)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			} else if *verbose {
				fmt.Printf("Sent %d bytes\n", len(arg))
			}

		case "line":
			l, err := c.ReadLine(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			} else {
				fmt.Println(l)
			}

		case "banner":
			b, err := c.WaitBanner(ctx, banner)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			} else {
				fmt.Printf("%s (%s CR1=0x%04X)\n", b.Text, b.USART, b.CR1)
			}

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", cmd)
		}
		cancel()
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help           - Show this help message")
	fmt.Println("  echo [text]    - Send text and expect it echoed back")
	fmt.Println("  send <text>    - Send raw text")
	fmt.Println("  line           - Print the next line from the board")
	fmt.Println("  banner         - Wait for the boot banner (after a reset)")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}
