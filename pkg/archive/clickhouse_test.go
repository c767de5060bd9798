package archive

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/wavedaq/pkg/config"
)

func TestWaveformWindowsSchema(t *testing.T) {
	assert.Contains(t, WaveformWindowsTableSQL, "CREATE TABLE IF NOT EXISTS waveform_windows")
	assert.Contains(t, WaveformWindowsTableSQL, "collected_at DateTime64(3)")
	assert.Contains(t, WaveformWindowsTableSQL, "samples Array(Int32)")
	assert.Contains(t, WaveformWindowsTableSQL, "ORDER BY (label, collected_at)")
	assert.Contains(t, AllTables(), WaveformWindowsTableSQL)
}

func TestToInt32(t *testing.T) {
	assert.Equal(t, []int32{0, 2048, 4095}, toInt32([]int{0, 2048, 4095}))
	assert.Empty(t, toInt32(nil))
}

func TestNew_Unreachable(t *testing.T) {
	// Grab a port nobody listens on
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = New(config.ArchiveConfig{
		Addr:     addr,
		Database: "wavedaq",
		Username: "default",
	})
	assert.Error(t, err)
}
