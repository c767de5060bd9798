package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultConnectTimeout bounds the TCP dial to the sampler.
const DefaultConnectTimeout = 10 * time.Second

// TCP reads the framed sample stream from the sampler's WiFi streaming port
// (3333 on the stock firmware). The line protocol is identical to serial.
type TCP struct {
	addr    string
	bufSize int

	conn      net.Conn
	lines     chan string
	done      chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// NewTCP creates a TCP source for addr ("host:3333").
func NewTCP(addr string, bufSize int) *TCP {
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TCP{
		addr:    addr,
		bufSize: bufSize,
		lines:   make(chan string, bufSize),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect dials the sampler and starts the reader goroutine.
func (d *TCP) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	conn, err := net.DialTimeout("tcp", d.addr, DefaultConnectTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", d.addr, err)
	}

	d.conn = conn
	d.connected = true

	go d.readLines(conn)

	log.Printf("Connected to sampler at %s", d.addr)
	return nil
}

// Close stops the reader and closes the connection.
func (d *TCP) Close() error {
	d.mu.Lock()

	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing connection: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	d.mu.Unlock()

	<-d.done

	return nil
}

// Lines returns the channel of raw stream lines.
func (d *TCP) Lines() <-chan string {
	return d.lines
}

// SendLabel sends the label command over the stream connection.
func (d *TCP) SendLabel(name string) error {
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

// IsConnected returns whether the source is currently connected.
func (d *TCP) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readLines reads stream lines into the lines channel. It owns the channel:
// the channel closes when the reader exits.
func (d *TCP) readLines(conn net.Conn) {
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
				if err := scanner.Err(); err != nil && err != io.EOF {
					select {
					case <-d.ctx.Done():
					default:
						log.Printf("Error reading from sampler: %v", err)
					}
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			select {
			case d.lines <- line:
			case <-d.ctx.Done():
				return
			default:
				log.Printf("Lines channel full, dropping line")
			}
		}
	}
}
