//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"
)

var (
	adc  machine.ADC
	uart = machine.UART0

	// Burst window buffer
	window [WINDOW_SIZE]uint16

	// Active label, as confirmed back to the host
	currentLabel [16]byte
	labelLen     int

	// Serial buffer for reading LBL lines
	serialBuffer [32]byte
	serialPos    int
)

func main() {
	PIN_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})

	adc = machine.ADC{Pin: PIN_ADC}
	adc.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	for {
		// Check for serial input (non-blocking)
		processSerial()

		sampleWindow()
		printWindow()

		// Let the host drain the UART before the next burst
		time.Sleep(WINDOW_PAUSE_MS * time.Millisecond)
	}
}

// sampleWindow fills the window buffer at the configured interval. Sampling
// runs back to back with no serial output so the timing stays even.
func sampleWindow() {
	interval := time.Duration(SAMPLE_INTERVAL_US) * time.Microsecond
	next := time.Now()

	for i := 0; i < WINDOW_SIZE; i++ {
		for time.Now().Before(next) {
		}
		window[i] = adc.Get()
		next = next.Add(interval)
	}
}

// printWindow emits one framed window: start sentinel, one decimal sample
// per line, end sentinel.
func printWindow() {
	println(START_MARKER)
	for i := 0; i < WINDOW_SIZE; i++ {
		println(window[i])
	}
	println(END_MARKER)
}

func processSerial() {
	// Read available bytes from serial
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		// Check for newline (end of line)
		if data == '\n' || data == '\r' {
			if serialPos > 0 {
				processLine()
			}
			serialPos = 0
			continue
		}

		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = data
			serialPos++
		}
		// Overlong lines are truncated; the prefix check below rejects them
	}
}

// processLine handles one complete serial line. Only "LBL:<NAME>" is
// recognized; anything else is ignored.
func processLine() {
	line := serialBuffer[:serialPos]
	if len(line) < 5 || line[0] != 'L' || line[1] != 'B' || line[2] != 'L' || line[3] != ':' {
		return
	}

	name := line[4:]
	labelLen = copy(currentLabel[:], name)

	// Acknowledge with a comment line; the host classifies it as noise
	print("# label ")
	uart.Write(currentLabel[:labelLen])
	print("\n")
}
