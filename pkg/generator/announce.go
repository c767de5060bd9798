package generator

import (
	"fmt"
	"net"

	log "github.com/sirupsen/logrus"

	"github.com/itohio/wavedaq/pkg/labels"
)

// Announcer sends label datagrams to the logging host so its listener tracks
// the generator's current waveform.
type Announcer struct {
	target string
	conn   net.Conn
}

// NewAnnouncer creates an announcer for target ("host:5005").
func NewAnnouncer(target string) (*Announcer, error) {
	conn, err := net.Dial("udp", target)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", target, err)
	}

	return &Announcer{
		target: target,
		conn:   conn,
	}, nil
}

// Announce sends one "LABEL:<id>:<name>" datagram.
func (a *Announcer) Announce(l labels.Label) error {
	if _, err := a.conn.Write([]byte(l.String())); err != nil {
		return fmt.Errorf("failed to announce %s: %w", l, err)
	}

	log.Printf("Sent label to %s: %s", a.target, l)
	return nil
}

// Close closes the announcer socket.
func (a *Announcer) Close() error {
	return a.conn.Close()
}
