package generator

import (
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"github.com/itohio/wavedaq/pkg/config"
	"github.com/itohio/wavedaq/pkg/wave"
)

const (
	// DefaultBaudRate is the generator console baud rate.
	DefaultBaudRate = 115200
	// DefaultSettle is the wait after a config command before starting output.
	DefaultSettle = 500 * time.Millisecond
	// DefaultFrequency is the signal frequency used when a step has none.
	DefaultFrequency = 1000
)

// Port is the writable console link to the generator MCU.
type Port interface {
	io.Writer
	io.Closer
}

// Driver speaks the generator console protocol. Commands are CRLF-terminated
// lines: "config <wave> <freq>", "start", "stop".
type Driver struct {
	port   Port
	settle time.Duration
}

// NewDriver creates a driver over an already-open console port.
func NewDriver(port Port, settle time.Duration) *Driver {
	if settle <= 0 {
		settle = DefaultSettle
	}

	return &Driver{
		port:   port,
		settle: settle,
	}
}

// Open opens the configured serial console and returns a driver for it.
func Open(cfg config.GeneratorConfig) (*Driver, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}

	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open generator port %s: %w", cfg.Port, err)
	}

	log.Printf("Connected to generator at %s", cfg.Port)
	return NewDriver(port, cfg.Settle), nil
}

// Configure selects the waveform and frequency, then waits for the generator
// to settle.
func (d *Driver) Configure(ctx context.Context, waveform wave.Type, freq int) error {
	if freq <= 0 {
		freq = DefaultFrequency
	}

	if _, err := fmt.Fprintf(d.port, "config %d %d\r\n", int(waveform), freq); err != nil {
		return fmt.Errorf("failed to configure generator: %w", err)
	}

	return sleep(ctx, d.settle)
}

// Start starts signal output.
func (d *Driver) Start() error {
	if _, err := fmt.Fprint(d.port, "start\r\n"); err != nil {
		return fmt.Errorf("failed to start generator: %w", err)
	}
	return nil
}

// Stop stops signal output.
func (d *Driver) Stop() error {
	if _, err := fmt.Fprint(d.port, "stop\r\n"); err != nil {
		return fmt.Errorf("failed to stop generator: %w", err)
	}
	return nil
}

// Close closes the console port.
func (d *Driver) Close() error {
	return d.port.Close()
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
