package device

import (
	"fmt"
	"strings"
)

// Source defines the interface for sample stream providers (real or mocked).
// Lines carries the raw framed stream; the channel closes after Close.
type Source interface {
	Connect() error
	Close() error
	Lines() <-chan string
	SendLabel(name string) error
	IsConnected() bool
}

// labelCommand formats the label write-back sent to the MCU.
// Format: "LBL:<NAME>\n".
func labelCommand(name string) string {
	return fmt.Sprintf("LBL:%s\n", strings.ToUpper(strings.TrimSpace(name)))
}

// Ensure Serial implements Source.
var _ Source = (*Serial)(nil)

// Ensure TCP implements Source.
var _ Source = (*TCP)(nil)

// Ensure WS implements Source.
var _ Source = (*WS)(nil)

// Ensure Mock implements Source.
var _ Source = (*Mock)(nil)
