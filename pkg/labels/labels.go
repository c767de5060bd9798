package labels

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// Label identifies a waveform class. ID is the numeric wire id used by the
// generator; Name is the canonical upper-case class name.
type Label struct {
	ID   int
	Name string
}

// New creates a label with the name normalized to upper case.
func New(id int, name string) Label {
	return Label{ID: id, Name: strings.ToUpper(strings.TrimSpace(name))}
}

// String returns the wire form "LABEL:<id>:<name>".
func (l Label) String() string {
	return fmt.Sprintf("LABEL:%d:%s", l.ID, l.Name)
}

// ParseMessage parses a label sync message of the form "LABEL:<id>:<name>".
// The name is normalized to upper case.
func ParseMessage(msg string) (Label, error) {
	msg = strings.TrimSpace(msg)
	if !strings.HasPrefix(msg, "LABEL:") {
		return Label{}, fmt.Errorf("not a label message: %q", msg)
	}

	parts := strings.Split(msg, ":")
	if len(parts) != 3 {
		return Label{}, fmt.Errorf("invalid label message: expected LABEL:<id>:<name>, got %q", msg)
	}

	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return Label{}, fmt.Errorf("invalid label id: %w", err)
	}

	name := strings.ToUpper(strings.TrimSpace(parts[2]))
	if name == "" {
		return Label{}, fmt.Errorf("empty label name in %q", msg)
	}

	return Label{ID: id, Name: name}, nil
}

// Cell is the shared current-label slot. Listener goroutines store into it at
// any time; the collector loads it once per completed window, so the label in
// effect at finalize time governs attribution.
type Cell struct {
	ptr atomic.Pointer[Label]
}

// Store publishes a new current label.
func (c *Cell) Store(l Label) {
	c.ptr.Store(&l)
}

// Load returns the current label and whether one has been set.
func (c *Cell) Load() (Label, bool) {
	p := c.ptr.Load()
	if p == nil {
		return Label{}, false
	}
	return *p, true
}

// Clear unsets the current label. Windows finalized while the cell is empty
// are discarded.
func (c *Cell) Clear() {
	c.ptr.Store(nil)
}
