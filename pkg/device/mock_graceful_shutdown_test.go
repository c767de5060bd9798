package device

import (
	"testing"
	"time"

	"github.com/itohio/wavedaq/pkg/config"
	"github.com/stretchr/testify/assert"
)

// TestMock_GracefulShutdown tests that the mocked source closes its lines
// channel when Close() is called.
func TestMock_GracefulShutdown(t *testing.T) {
	cfg := &config.MockConfig{
		Waveform:       "SINE",
		WindowSize:     16,
		SampleRate:     20000,
		Frequency:      1000,
		Amplitude:      1000,
		NoiseLevel:     5,
		WindowInterval: 5 * time.Millisecond,
	}

	mock := NewMock(cfg)
	err := mock.Connect()
	assert.NoError(t, err)

	lines := mock.Lines()

	// Read a few lines
	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range lines {
			received++
			if received == 3 {
				// Got enough of the stream, now close the source
				mock.Close()
			}
		}
	}()

	// Wait for lines and channel closure
	select {
	case <-done:
		// Channel closed successfully
	case <-time.After(5 * time.Second):
		t.Fatal("Lines channel did not close within timeout")
	}

	// Should have received at least a few lines
	assert.GreaterOrEqual(t, received, 3, "Should receive lines before the channel closes")

	// Verify channel is closed
	_, ok := <-lines
	assert.False(t, ok, "Channel should be closed")
}
