package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the standard baud rate for the sampler MCU.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the lines channel buffer.
	// The sampler bursts a whole window of lines at once, so the buffer
	// holds several frames.
	DefaultBufferSize = 4096
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial reads the framed sample stream from the sampler MCU over a serial
// port and carries the label command back to it.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	lines     chan string
	done      chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial source with the specified port, baud rate, and
// buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		bufSize:   bufSize,
		lines:     make(chan string, bufSize),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts the reader goroutine.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	// Start reading lines in a goroutine
	go d.readLines(port)

	return nil
}

// Close stops the reader and closes the port. The lines channel is closed by
// the reader on its way out.
func (d *Serial) Close() error {
	d.mu.Lock()

	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	// Cancel context and close the port to unblock the scanner
	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	d.mu.Unlock()

	// Wait for the reader goroutine to drain out
	<-d.done

	return nil
}

// Lines returns the channel of raw stream lines.
func (d *Serial) Lines() <-chan string {
	return d.lines
}

// SendLabel sends the current label to the MCU. Command format: "LBL:<NAME>\n".
func (d *Serial) SendLabel(name string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	_, err := d.conn.Write([]byte(labelCommand(name)))
	if err != nil {
		return fmt.Errorf("failed to send label command: %w", err)
	}

	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readLines reads lines from the serial port into the lines channel. It owns
// the channel: the channel closes when the reader exits.
func (d *Serial) readLines(conn serial.Port) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readLines: %v", r)
		}
		close(d.lines)
		close(d.done)
	}()

	scanner := bufio.NewScanner(conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				// Scanner stopped (EOF, port closed, or error)
				if err := scanner.Err(); err != nil && err != io.EOF {
					select {
					case <-d.ctx.Done():
						// Expected after Close
					default:
						log.Printf("Error reading from serial port: %v", err)
					}
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			// Send line to channel (non-blocking)
			select {
			case d.lines <- line:
			case <-d.ctx.Done():
				return
			default:
				// Channel full, log and skip
				log.Printf("Lines channel full, dropping line")
			}
		}
	}
}
