package labels

import (
	"context"
	"fmt"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"
)

// DefaultUDPAddr is the listen address the generator broadcasts labels to.
const DefaultUDPAddr = ":5005"

// UDPListener receives LABEL:<id>:<name> datagrams and stores each valid
// label into the shared Cell. Malformed datagrams are logged and ignored.
type UDPListener struct {
	addr string
	cell *Cell

	conn    *net.UDPConn
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// NewUDPListener creates a listener for addr (DefaultUDPAddr when empty).
func NewUDPListener(addr string, cell *Cell) *UDPListener {
	if addr == "" {
		addr = DefaultUDPAddr
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &UDPListener{
		addr:   addr,
		cell:   cell,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start binds the socket and starts the receive goroutine.
func (l *UDPListener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return fmt.Errorf("already listening")
	}

	udpAddr, err := net.ResolveUDPAddr("udp", l.addr)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", l.addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to bind label listener on %s: %w", l.addr, err)
	}

	l.conn = conn
	l.running = true

	go l.receive(conn)

	log.Printf("Label listener started on %s", conn.LocalAddr())
	return nil
}

// Close stops the listener and releases the socket.
func (l *UDPListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return nil
	}

	l.cancel()

	if l.conn != nil {
		if err := l.conn.Close(); err != nil {
			log.Printf("Error closing label listener: %v", err)
		}
		l.conn = nil
	}

	l.running = false

	return nil
}

// Addr returns the bound local address, or nil when not listening.
func (l *UDPListener) Addr() net.Addr {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// receive reads datagrams until the socket is closed.
func (l *UDPListener) receive(conn *net.UDPConn) {
	buf := make([]byte, 256)

	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-l.ctx.Done():
				// Closed by Close, not an error
			default:
				log.Printf("Label listener read error: %v", err)
			}
			return
		}

		label, err := ParseMessage(string(buf[:n]))
		if err != nil {
			log.Printf("Ignoring malformed label datagram: %v", err)
			continue
		}

		l.cell.Store(label)
		log.Printf("Label updated: %s (wave=%d)", label.Name, label.ID)
	}
}
