package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/womat/debug"

	"github.com/HarishvinS/Taara-V2/core"
	"github.com/HarishvinS/Taara-V2/host/bridge"
	"github.com/HarishvinS/Taara-V2/host/serial"
	"github.com/HarishvinS/Taara-V2/protocol"
)

var (
	device     = flag.String("device", "/dev/ttyACM0", "Serial device of the optical head")
	baud       = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	configPath = flag.String("config", "", "Link config JSON (defaults when empty)")
	mode       = flag.String("mode", "recv", "Mode: send or recv")
	msgType    = flag.String("type", "TXT", "3-byte frame type tag (send mode)")
	message    = flag.String("message", "", "Payload to transmit (send mode)")
	repeat     = flag.Int("repeat", 1, "Number of times to transmit the frame")
	count      = flag.Int("count", 0, "Frames to receive before exiting (0 = forever)")
	verbose    = flag.Bool("debug", false, "Enable debug/trace logging")
)

func main() {
	flag.Parse()

	if *verbose {
		debug.SetDebug(os.Stderr, debug.Full)
	} else {
		debug.SetDebug(os.Stderr, debug.Standard)
	}

	cfg, err := loadLinkConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	portCfg := serial.DefaultConfig(*device)
	portCfg.Baud = *baud
	port, err := serial.Open(portCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	head := bridge.Open(port)
	defer head.Close()

	switch *mode {
	case "send":
		err = runSend(cfg, head)
	case "recv":
		err = runRecv(cfg, head)
	default:
		err = fmt.Errorf("unknown mode %q (want send or recv)", *mode)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadLinkConfig(path string) (core.Config, error) {
	if path == "" {
		return core.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Config{}, fmt.Errorf("config load failed: %w", err)
	}
	cfg, err := core.LoadConfig(data)
	if err != nil {
		return core.Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

func runSend(cfg core.Config, head *bridge.Head) error {
	tx := core.NewTransmitter(cfg, head, core.SystemClock)

	fmt.Printf("Transmitting %d byte(s) as %q, %d time(s)...\n",
		len(*message), *msgType, *repeat)
	if err := tx.SendRepeat(*msgType, []byte(*message), *repeat); err != nil {
		return err
	}
	fmt.Println("Done.")
	return nil
}

func runRecv(cfg core.Config, head *bridge.Head) error {
	received := 0
	var rcv *core.Receiver
	rcv = core.NewReceiver(cfg, head, core.SystemClock, func(msg *protocol.Message, err error) {
		if n := head.Backlog(); n > 0 {
			debug.DebugLog.Printf("receiver lagging optical head by %d samples", n)
		}
		if err != nil {
			fmt.Printf("frame rejected: %v\n", err)
			return
		}
		fmt.Printf("frame: type=%q length=%d payload=%q\n",
			msg.TypeString(), msg.Header.Length, msg.Payload)
		received++
		if *count > 0 && received >= *count {
			rcv.Stop()
		}
	})

	fmt.Println("Listening (calibrating first)...")
	return rcv.Run()
}
