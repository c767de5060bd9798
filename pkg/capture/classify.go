package capture

import (
	"strconv"
	"strings"
)

// Sentinel markers framing one sample window in the device stream.
const (
	StartMarker = "===ADC_START==="
	EndMarker   = "===ADC_END==="
)

// Kind tags a classified input line.
type Kind int

const (
	// KindOther is any line that is neither a sentinel nor a sample.
	KindOther Kind = iota
	// KindStart is the window start sentinel.
	KindStart
	// KindEnd is the window end sentinel.
	KindEnd
	// KindSample is a decimal ADC sample line.
	KindSample
)

// Token is one classified input line. Value is set only for KindSample.
type Token struct {
	Kind  Kind
	Value int
}

// Classify tags one line from the device stream. Sentinels are matched by
// substring so surrounding boot noise or debug output does not break framing;
// sample lines must be plain decimal integers. Everything else is KindOther.
func Classify(line string) Token {
	line = strings.TrimSpace(line)

	if strings.Contains(line, StartMarker) {
		return Token{Kind: KindStart}
	}
	if strings.Contains(line, EndMarker) {
		return Token{Kind: KindEnd}
	}

	if v, err := strconv.Atoi(line); err == nil {
		return Token{Kind: KindSample, Value: v}
	}

	return Token{Kind: KindOther}
}
