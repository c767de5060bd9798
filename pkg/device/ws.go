package device

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// WS reads the framed sample stream from a WebSocket endpoint. Each text
// message may carry one or more newline-separated stream lines.
type WS struct {
	url     string
	bufSize int

	conn      *websocket.Conn
	lines     chan string
	done      chan struct{}
	mu        sync.RWMutex
	writeMu   sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// NewWS creates a WebSocket source for url ("ws://host/ws").
func NewWS(url string, bufSize int) *WS {
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WS{
		url:     url,
		bufSize: bufSize,
		lines:   make(chan string, bufSize),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect dials the endpoint and starts the reader goroutine.
func (d *WS) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	conn, _, err := websocket.DefaultDialer.Dial(d.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", d.url, err)
	}

	d.conn = conn
	d.connected = true

	go d.readMessages(conn)

	log.Printf("Connected to sampler at %s", d.url)
	return nil
}

// Close sends a close frame, closes the connection, and waits for the reader.
func (d *WS) Close() error {
	d.mu.Lock()

	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()

	if d.conn != nil {
		d.writeMu.Lock()
		err := d.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		d.writeMu.Unlock()
		if err != nil {
			log.Printf("Error sending close message: %v", err)
		}

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
func (d *WS) Lines() <-chan string {
	return d.lines
}

// SendLabel sends the label command as a text message.
func (d *WS) SendLabel(name string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	d.writeMu.Lock()
	err := d.conn.WriteMessage(websocket.TextMessage, []byte(labelCommand(name)))
	d.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to send label command: %w", err)
	}

	return nil
}

// IsConnected returns whether the source is currently connected.
func (d *WS) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readMessages reads messages, splits them into lines, and feeds the lines
// channel. It owns the channel: the channel closes when the reader exits.
func (d *WS) readMessages(conn *websocket.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readMessages: %v", r)
		}
		close(d.lines)
		close(d.done)
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-d.ctx.Done():
				// Expected after Close
			default:
				log.Printf("Error reading from sampler: %v", err)
			}
			return
		}

		for _, line := range strings.Split(string(message), "\n") {
			line = strings.TrimSpace(line)
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
