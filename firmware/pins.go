package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_US = 50  // ADC read interval in microseconds (20 kHz)
	WINDOW_SIZE        = 256 // Samples per burst window
	WINDOW_PAUSE_MS    = 50  // Pause between windows (lets the host drain the UART)

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// Signal input pin
	PIN_ADC = machine.A1

	// Window framing sentinels, matched by the host collector
	START_MARKER = "===ADC_START==="
	END_MARKER   = "===ADC_END==="

	// Serial configuration
	// Worst case per window: 2 sentinel lines + 256 sample lines of up to
	// 5 bytes ("4095\n") = ~1.3 KB. UART 8N1 at 115200 moves 11.5 KB/s, so
	// draining a window takes ~115ms; sampling pauses while printing, which
	// is fine because each window is a self-contained burst.
	UART_BAUD_RATE = 115200
)
