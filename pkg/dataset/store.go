package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/itohio/wavedaq/pkg/capture"
)

const (
	// CSVSubdir is the per-label CSV directory under the data directory.
	CSVSubdir = "waveform_csv"
	// CombinedName is the combined training dataset written by Combine.
	CombinedName = "all_waveforms_combined.csv"

	mlSuffix = "_ml.csv"
)

// Store persists collected windows as ML-friendly CSV files rooted at a data
// directory. Per-label files live in a waveform_csv/ subdirectory; the
// combined dataset and run summaries live in the data directory itself.
type Store struct {
	dataDir string
	csvDir  string
}

// NewStore creates the data directory layout and returns a store for it.
func NewStore(dataDir string) (*Store, error) {
	csvDir := filepath.Join(dataDir, CSVSubdir)
	if err := os.MkdirAll(csvDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", csvDir, err)
	}

	return &Store{
		dataDir: dataDir,
		csvDir:  csvDir,
	}, nil
}

// DataDir returns the data directory root.
func (s *Store) DataDir() string {
	return s.dataDir
}

// CSVDir returns the per-label CSV directory.
func (s *Store) CSVDir() string {
	return s.csvDir
}

// LabelPath returns the per-label CSV path for label.
func (s *Store) LabelPath(label string) string {
	name := strings.ToUpper(strings.TrimSpace(label))
	return filepath.Join(s.csvDir, name+mlSuffix)
}

// CombinedPath returns the combined dataset path.
func (s *Store) CombinedPath() string {
	return filepath.Join(s.dataDir, CombinedName)
}

// WriteLabel writes one row per window to "<LABEL>_ml.csv" in arrival order.
// Columns: label, window_index, sample_0..sample_{N-1}. The file is rewritten
// whole each time. Nothing is written when windows is empty; the returned
// path is empty in that case.
func (s *Store) WriteLabel(label string, windows []capture.Window, windowSize int) (string, error) {
	if len(windows) == 0 {
		return "", nil
	}
	if windowSize <= 0 {
		windowSize = len(windows[0].Samples)
	}

	name := strings.ToUpper(strings.TrimSpace(label))
	path := s.LabelPath(name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := make([]string, 0, windowSize+2)
	header = append(header, "label", "window_index")
	for i := 0; i < windowSize; i++ {
		header = append(header, fmt.Sprintf("sample_%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	for i, win := range windows {
		row := make([]string, 0, len(header))
		row = append(row, name, strconv.Itoa(i))
		samples := win.Samples
		if len(samples) > windowSize {
			samples = samples[:windowSize]
		}
		for _, v := range samples {
			row = append(row, strconv.Itoa(v))
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// ReadLabel reads a per-label CSV back into windows.
func (s *Store) ReadLabel(label string) ([]capture.Window, error) {
	path := s.LabelPath(label)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	windows := make([]capture.Window, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 2 {
			continue
		}
		idx, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("bad window index in %s: %w", path, err)
		}
		samples := make([]int, 0, len(rec)-2)
		for _, cell := range rec[2:] {
			v, err := strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("bad sample in %s: %w", path, err)
			}
			samples = append(samples, v)
		}
		windows = append(windows, capture.Window{
			Label:   rec[0],
			Index:   idx,
			Samples: samples,
		})
	}

	return windows, nil
}

// Combine concatenates every per-label CSV into the combined dataset: the
// header comes from the first input, then all data rows. Inputs are taken in
// sorted filename order so re-combining unchanged files yields a
// byte-identical output.
func (s *Store) Combine() (string, error) {
	files, err := filepath.Glob(filepath.Join(s.csvDir, "*"+mlSuffix))
	if err != nil {
		return "", fmt.Errorf("failed to scan %s: %w", s.csvDir, err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no per-label csv files in %s", s.csvDir)
	}
	sort.Strings(files)

	path := s.CombinedPath()
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	for i, file := range files {
		if err := appendCSV(w, file, i > 0); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// appendCSV copies one CSV file's records into w, optionally dropping its
// header row.
func appendCSV(w *csv.Writer, path string, skipHeader bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if first && skipHeader {
			first = false
			continue
		}
		first = false
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write combined csv: %w", err)
		}
	}
}

// LabelInfo describes one per-label CSV file.
type LabelInfo struct {
	Label   string
	Windows int
	Path    string
}

// List returns the per-label files with their window counts, in sorted
// filename order.
func (s *Store) List() ([]LabelInfo, error) {
	files, err := filepath.Glob(filepath.Join(s.csvDir, "*"+mlSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.csvDir, err)
	}
	sort.Strings(files)

	infos := make([]LabelInfo, 0, len(files))
	for _, file := range files {
		rows, err := countRows(file)
		if err != nil {
			return nil, err
		}
		infos = append(infos, LabelInfo{
			Label:   strings.TrimSuffix(filepath.Base(file), mlSuffix),
			Windows: rows,
			Path:    file,
		})
	}

	return infos, nil
}

// HasCombined reports whether the combined dataset exists.
func (s *Store) HasCombined() bool {
	_, err := os.Stat(s.CombinedPath())
	return err == nil
}

// countRows counts the data rows (excluding the header) of a CSV file.
func countRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rows++
	}

	if rows > 0 {
		rows--
	}
	return rows, nil
}
