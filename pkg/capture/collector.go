package capture

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/itohio/wavedaq/pkg/config"
	"github.com/itohio/wavedaq/pkg/labels"
)

const (
	// DefaultWindowSize is the expected number of samples per window.
	DefaultWindowSize = 256
	// DefaultIdleTimeout bounds how long Collect waits for the next line.
	DefaultIdleTimeout = 10 * time.Second
)

var (
	// ErrIdleTimeout means no line arrived within the idle timeout.
	ErrIdleTimeout = errors.New("no data within idle timeout")
	// ErrStreamClosed means the line stream closed before the target was reached.
	ErrStreamClosed = errors.New("sample stream closed")
)

// state of the window framing machine.
type state int

const (
	stateWaiting state = iota
	stateCollecting
)

// Window is one sealed fixed-length sample window attributed to a label.
type Window struct {
	Label       string
	Index       int // per-label arrival index, starting at 0
	Samples     []int
	CollectedAt time.Time
}

// Collector assembles framed sample windows from a line stream and
// accumulates them per label. It is two-state: WAITING until a start
// sentinel, COLLECTING until the end sentinel seals (or discards) the
// buffered samples. Attribution uses the label in the shared cell at seal
// time, so asynchronous label updates take effect mid-frame.
type Collector struct {
	windowSize  int
	idleTimeout time.Duration
	cell        *labels.Cell

	mu        sync.RWMutex
	state     state
	buf       []int
	byLabel   map[string][]Window
	discarded int

	callbacks []func(Window)
	cbMu      sync.RWMutex
}

// New creates a Collector using the capture section of the configuration.
func New(cfg *config.Config, cell *labels.Cell) *Collector {
	windowSize := cfg.Capture.WindowSize
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	idleTimeout := cfg.Capture.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	if cell == nil {
		cell = &labels.Cell{}
	}

	return &Collector{
		windowSize:  windowSize,
		idleTimeout: idleTimeout,
		cell:        cell,
		state:       stateWaiting,
		buf:         make([]int, 0, windowSize),
		byLabel:     make(map[string][]Window),
	}
}

// WindowSize returns the expected samples per window.
func (c *Collector) WindowSize() int {
	return c.windowSize
}

// Feed advances the state machine by one input line. It returns the window
// sealed by this line, if any.
func (c *Collector) Feed(line string) (Window, bool) {
	token := Classify(line)

	var sealed *Window

	c.mu.Lock()
	switch token.Kind {
	case KindStart:
		// A start sentinel always begins a fresh buffer. Restarting while
		// COLLECTING keeps a missed end sentinel from corrupting the next frame.
		c.state = stateCollecting
		c.buf = c.buf[:0]

	case KindEnd:
		if c.state == stateCollecting {
			sealed = c.seal()
			c.state = stateWaiting
			c.buf = c.buf[:0]
		}

	case KindSample:
		if c.state == stateCollecting {
			c.buf = append(c.buf, token.Value)
		}

	case KindOther:
		// Ignored in both states.
	}
	c.mu.Unlock()

	if sealed != nil {
		c.notify(*sealed)
		return *sealed, true
	}

	return Window{}, false
}

// seal validates the buffered samples and attributes them to the current
// label. Called with the write lock held. Returns nil when the window is
// discarded.
func (c *Collector) seal() *Window {
	if len(c.buf) != c.windowSize {
		// An empty buffer (start immediately followed by end) is dropped
		// without noise; anything else is a framing problem worth a warning.
		if len(c.buf) > 0 {
			c.discarded++
			log.Warnf("Got %d samples, expected %d", len(c.buf), c.windowSize)
		}
		return nil
	}

	label, ok := c.cell.Load()
	if !ok {
		c.discarded++
		log.Warnf("Discarding complete window: no label set")
		return nil
	}

	samples := make([]int, len(c.buf))
	copy(samples, c.buf)

	w := Window{
		Label:       label.Name,
		Index:       len(c.byLabel[label.Name]),
		Samples:     samples,
		CollectedAt: time.Now(),
	}
	c.byLabel[label.Name] = append(c.byLabel[label.Name], w)

	return &w
}

// Collect stores the label into the shared cell, then consumes lines until
// target windows have been attributed to that label. It returns the number
// collected during this call, which may be short when the context is
// cancelled (nil error), the stream closes (ErrStreamClosed), or no line
// arrives within the idle timeout (ErrIdleTimeout). Windows sealed under a
// different label are stored under their own label but do not advance the
// target.
func (c *Collector) Collect(ctx context.Context, lines <-chan string, label labels.Label, target int) (int, error) {
	if target <= 0 {
		return 0, nil
	}

	c.cell.Store(label)

	timer := time.NewTimer(c.idleTimeout)
	defer timer.Stop()

	collected := 0
	for {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.idleTimeout)

		select {
		case <-ctx.Done():
			return collected, nil

		case line, ok := <-lines:
			if !ok {
				return collected, ErrStreamClosed
			}
			if w, sealed := c.Feed(line); sealed && w.Label == label.Name {
				collected++
				if collected >= target {
					return collected, nil
				}
			}

		case <-timer.C:
			return collected, fmt.Errorf("%w (%s)", ErrIdleTimeout, c.idleTimeout)
		}
	}
}

// Windows returns a copy of the windows attributed to label, in arrival order.
func (c *Collector) Windows(label string) []Window {
	c.mu.RLock()
	defer c.mu.RUnlock()

	src := c.byLabel[strings.ToUpper(label)]
	result := make([]Window, len(src))
	copy(result, src)
	return result
}

// Labels returns the labels with at least one window, sorted by name.
func (c *Collector) Labels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]string, 0, len(c.byLabel))
	for name := range c.byLabel {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Counts returns per-label window counts.
func (c *Collector) Counts() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]int, len(c.byLabel))
	for name, windows := range c.byLabel {
		result[name] = len(windows)
	}
	return result
}

// Total returns the total number of stored windows across all labels.
func (c *Collector) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, windows := range c.byLabel {
		total += len(windows)
	}
	return total
}

// Discarded returns the number of windows dropped for length mismatch or a
// missing label.
func (c *Collector) Discarded() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.discarded
}

// Snapshot returns a copy of all stored windows grouped by label.
func (c *Collector) Snapshot() map[string][]Window {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string][]Window, len(c.byLabel))
	for name, windows := range c.byLabel {
		cp := make([]Window, len(windows))
		copy(cp, windows)
		result[name] = cp
	}
	return result
}

// Reset clears accumulated windows, counters, and framing state.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = stateWaiting
	c.buf = c.buf[:0]
	c.byLabel = make(map[string][]Window)
	c.discarded = 0
}

// OnWindow registers a callback invoked after each sealed window. Callbacks
// run on the feeding goroutine and should return quickly.
func (c *Collector) OnWindow(callback func(Window)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.callbacks = append(c.callbacks, callback)
}

// notify invokes registered callbacks without holding the data lock.
func (c *Collector) notify(w Window) {
	c.cbMu.RLock()
	callbacks := make([]func(Window), len(c.callbacks))
	copy(callbacks, c.callbacks)
	c.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(w)
		}
	}
}
