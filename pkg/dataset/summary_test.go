package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s := newTestStore(t)

	counts := map[string]int{"SINE": 3, "SQUARE": 0, "TRIANGLE": 2}
	sum := s.Summarize(256, 20000, []string{"SINE", "SQUARE", "TRIANGLE", "SAWTOOTH"}, counts)

	assert.Equal(t, 256, sum.SampleWindow)
	assert.Equal(t, 20000, sum.SamplingRate)
	assert.Equal(t, 5, sum.TotalWindows)
	assert.Equal(t, 5*256, sum.TotalSamples)
	assert.Equal(t, []string{"SINE_ml.csv", "TRIANGLE_ml.csv"}, sum.MLFiles)
	assert.Equal(t, CombinedName, sum.CombinedFile)
	assert.Equal(t, 3, sum.TotalCSVFiles)
	assert.Equal(t, 0, sum.WindowsCollected["SQUARE"])
	assert.Equal(t, 0, sum.WindowsCollected["SAWTOOTH"])
	assert.Equal(t, s.CSVDir(), sum.DataDirectory)
	assert.NotEmpty(t, sum.CollectionTime)
}

func TestWriteSummary(t *testing.T) {
	s := newTestStore(t)

	sum := s.Summarize(2, 20000, []string{"SINE"}, map[string]int{"SINE": 1})
	path, err := s.WriteSummary(sum)
	require.NoError(t, err)

	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "collection_summary_"), base)
	assert.True(t, strings.HasSuffix(base, ".json"), base)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sum, got)

	assert.Contains(t, string(data), `"collection_time"`)
	assert.Contains(t, string(data), `"windows_collected"`)
	assert.Contains(t, string(data), `"total_samples"`)
}
