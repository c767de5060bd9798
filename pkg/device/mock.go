package device

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/itohio/wavedaq/pkg/capture"
	"github.com/itohio/wavedaq/pkg/config"
	"github.com/itohio/wavedaq/pkg/wave"
)

// Mock simulates a sampler MCU for testing and development. It emits endless
// framed windows of the configured waveform and switches waveforms when a
// label is sent, so a full collection run works without hardware.
type Mock struct {
	cfg        *config.MockConfig
	windowSize int

	lines     chan string
	done      chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	// Simulation state
	waveform wave.Type
	sent     int // absolute sample index, keeps the synthesis phase-continuous
	frames   int
}

// NewMock creates a new mocked source instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			Waveform:       "SINE",
			WindowSize:     256,
			SampleRate:     20000,
			Frequency:      1000,
			Amplitude:      1500,
			NoiseLevel:     20,
			WindowInterval: 50 * time.Millisecond,
		}
	}

	windowSize := cfg.WindowSize
	if windowSize <= 0 {
		windowSize = 256
	}

	waveform, err := wave.ParseType(cfg.Waveform)
	if err != nil {
		waveform = wave.Sine
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:        cfg,
		windowSize: windowSize,
		lines:      make(chan string, DefaultBufferSize),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		waveform:   waveform,
	}
}

// Connect starts emitting frames.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true

	go m.emitFrames()

	return nil
}

// Close stops the mocked source and waits for the emitter to drain out.
func (m *Mock) Close() error {
	m.mu.Lock()

	if !m.connected {
		m.mu.Unlock()
		return nil
	}

	m.cancel()
	m.connected = false
	m.mu.Unlock()

	<-m.done

	return nil
}

// Lines returns the channel of raw stream lines.
func (m *Mock) Lines() <-chan string {
	return m.lines
}

// SendLabel switches the synthesized waveform when the label names one.
// Unknown labels are kept streaming under the current waveform, like a real
// sampler that ignores commands it does not understand.
func (m *Mock) SendLabel(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}

	waveform, err := wave.ParseType(name)
	if err != nil {
		log.Printf("Mock: unknown waveform %q, keeping %s", name, m.waveform)
		return nil
	}

	m.waveform = waveform

	// Ack line, classified as noise by the collector
	select {
	case m.lines <- "# label=" + waveform.String():
	default:
	}

	return nil
}

// IsConnected returns whether the source is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// emitFrames emits one framed window per tick. It owns the lines channel:
// the channel closes when the emitter exits.
func (m *Mock) emitFrames() {
	defer func() {
		close(m.lines)
		close(m.done)
	}()

	interval := m.cfg.WindowInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.emitFrame() {
				return
			}
		}
	}
}

// emitFrame sends one complete frame. Sends block so frames stay whole; a
// cancelled context is the only early exit.
func (m *Mock) emitFrame() bool {
	m.mu.RLock()
	waveform := m.waveform
	m.mu.RUnlock()

	n := m.windowSize
	m.frames++
	if m.cfg.TruncateEvery > 0 && m.frames%m.cfg.TruncateEvery == 0 {
		// Short frame, exercises the collector's discard path
		n = n / 2
	}

	samples := wave.Synth(waveform, n,
		float32(m.cfg.SampleRate), float32(m.cfg.Frequency), float32(m.cfg.Amplitude), m.sent)

	if !m.send(capture.StartMarker) {
		return false
	}
	for i, v := range samples {
		code := wave.Clip(v + int(wave.Noise(m.sent+i, float32(m.cfg.NoiseLevel))))
		if !m.send(strconv.Itoa(code)) {
			return false
		}
	}
	m.sent += n

	return m.send(capture.EndMarker)
}

// send delivers one line, blocking until the consumer takes it or the
// context is cancelled.
func (m *Mock) send(line string) bool {
	select {
	case m.lines <- line:
		return true
	case <-m.ctx.Done():
		return false
	}
}
