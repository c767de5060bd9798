package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Summary is the per-run collection summary persisted next to the dataset.
type Summary struct {
	CollectionTime   string         `json:"collection_time"`
	SampleWindow     int            `json:"sample_window"`
	SamplingRate     int            `json:"sampling_rate"`
	Waveforms        []string       `json:"waveforms"`
	WindowsCollected map[string]int `json:"windows_collected"`
	TotalWindows     int            `json:"total_windows"`
	TotalSamples     int            `json:"total_samples"`
	MLFiles          []string       `json:"ml_files"`
	CombinedFile     string         `json:"combined_file"`
	TotalCSVFiles    int            `json:"total_csv_files"`
	DataDirectory    string         `json:"data_directory"`
}

// Summarize builds a run summary from per-label window counts. Only labels
// with collected windows appear in ml_files.
func (s *Store) Summarize(windowSize, sampleRate int, waveforms []string, counts map[string]int) Summary {
	stats := make(map[string]int, len(waveforms))
	total := 0
	mlFiles := make([]string, 0, len(waveforms))
	for _, w := range waveforms {
		n := counts[w]
		stats[w] = n
		total += n
		if n > 0 {
			mlFiles = append(mlFiles, w+mlSuffix)
		}
	}

	return Summary{
		CollectionTime:   time.Now().Format(time.RFC3339),
		SampleWindow:     windowSize,
		SamplingRate:     sampleRate,
		Waveforms:        waveforms,
		WindowsCollected: stats,
		TotalWindows:     total,
		TotalSamples:     total * windowSize,
		MLFiles:          mlFiles,
		CombinedFile:     CombinedName,
		TotalCSVFiles:    len(mlFiles) + 1,
		DataDirectory:    s.csvDir,
	}
}

// WriteSummary writes the summary as timestamped JSON in the data directory
// and returns the written path.
func (s *Store) WriteSummary(sum Summary) (string, error) {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}

	name := fmt.Sprintf("collection_summary_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.dataDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}
