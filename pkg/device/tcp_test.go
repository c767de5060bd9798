package device

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTCP(t *testing.T) {
	dev := NewTCP("192.168.1.151:3333", 100)
	assert.NotNil(t, dev)
	assert.Equal(t, "192.168.1.151:3333", dev.addr)
	assert.Equal(t, 100, dev.bufSize)
	assert.NotNil(t, dev.lines)
	assert.False(t, dev.IsConnected())
}

func TestNewTCP_Defaults(t *testing.T) {
	dev := NewTCP("192.168.1.151:3333", 0)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestTCP_ReadsLines(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fmt.Fprint(conn, "===ADC_START===\n100\n200\n===ADC_END===\n")
	}()

	dev := NewTCP(ln.Addr().String(), 16)
	require.NoError(t, dev.Connect())
	defer dev.Close()
	assert.True(t, dev.IsConnected())

	var got []string
	timeout := time.After(5 * time.Second)
	for len(got) < 4 {
		select {
		case line, ok := <-dev.Lines():
			if !ok {
				t.Fatal("Lines channel closed early")
			}
			got = append(got, line)
		case <-timeout:
			t.Fatal("Timed out waiting for lines")
		}
	}
	assert.Equal(t, []string{"===ADC_START===", "100", "200", "===ADC_END==="}, got)
}

func TestTCP_SendLabel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		scanner := bufio.NewScanner(conn)
		if scanner.Scan() {
			received <- scanner.Text()
		}
	}()

	dev := NewTCP(ln.Addr().String(), 16)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	require.NoError(t, dev.SendLabel("sine"))

	select {
	case cmd := <-received:
		assert.Equal(t, "LBL:SINE", cmd)
	case <-time.After(5 * time.Second):
		t.Fatal("Sampler did not receive the label command")
	}
}

func TestTCP_SendLabel_NotConnected(t *testing.T) {
	dev := NewTCP("127.0.0.1:3333", 16)
	err := dev.SendLabel("SINE")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestTCP_Connect_Refused(t *testing.T) {
	// Grab a port nobody listens on
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	dev := NewTCP(addr, 16)
	err = dev.Connect()
	assert.Error(t, err)
	assert.False(t, dev.IsConnected())
}

func TestTCP_CloseClosesLines(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// Hold the connection open; the client closes first
		buf := make([]byte, 1)
		_, _ = conn.Read(buf)
		conn.Close()
	}()

	dev := NewTCP(ln.Addr().String(), 16)
	require.NoError(t, dev.Connect())

	require.NoError(t, dev.Close())
	assert.False(t, dev.IsConnected())

	select {
	case _, ok := <-dev.Lines():
		assert.False(t, ok, "Channel should be closed")
	case <-time.After(5 * time.Second):
		t.Fatal("Lines channel did not close within timeout")
	}
}

func TestTCP_Close_NotConnected(t *testing.T) {
	dev := NewTCP("127.0.0.1:3333", 16)
	assert.NoError(t, dev.Close())
}
