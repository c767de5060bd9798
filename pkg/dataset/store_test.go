package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/wavedaq/pkg/capture"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func win(samples ...int) capture.Window {
	return capture.Window{Samples: samples}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.DataDir())
	assert.DirExists(t, filepath.Join(dir, CSVSubdir))
}

func TestWriteLabel(t *testing.T) {
	s := newTestStore(t)

	path, err := s.WriteLabel("sine", []capture.Window{win(1, 2), win(3, 4)}, 2)
	require.NoError(t, err)
	assert.Equal(t, s.LabelPath("SINE"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "label,window_index,sample_0,sample_1\n" +
		"SINE,0,1,2\n" +
		"SINE,1,3,4\n"
	assert.Equal(t, want, string(data))
}

func TestWriteLabel_Empty(t *testing.T) {
	s := newTestStore(t)

	path, err := s.WriteLabel("SINE", nil, 2)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.NoFileExists(t, s.LabelPath("SINE"))
}

func TestWriteLabel_RewritesWhole(t *testing.T) {
	s := newTestStore(t)

	_, err := s.WriteLabel("SINE", []capture.Window{win(1, 2), win(3, 4)}, 2)
	require.NoError(t, err)

	path, err := s.WriteLabel("SINE", []capture.Window{win(9, 9)}, 2)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "label,window_index,sample_0,sample_1\nSINE,0,9,9\n", string(data))
}

func TestReadLabel_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, err := s.WriteLabel("SQUARE", []capture.Window{win(10, 20), win(30, 40)}, 2)
	require.NoError(t, err)

	windows, err := s.ReadLabel("square")
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, "SQUARE", windows[0].Label)
	assert.Equal(t, 0, windows[0].Index)
	assert.Equal(t, []int{10, 20}, windows[0].Samples)
	assert.Equal(t, 1, windows[1].Index)
	assert.Equal(t, []int{30, 40}, windows[1].Samples)
}

func TestReadLabel_Missing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ReadLabel("SINE")
	assert.Error(t, err)
}

func TestCombine(t *testing.T) {
	s := newTestStore(t)

	_, err := s.WriteLabel("SQUARE", []capture.Window{win(5, 6)}, 2)
	require.NoError(t, err)
	_, err = s.WriteLabel("SINE", []capture.Window{win(1, 2)}, 2)
	require.NoError(t, err)

	path, err := s.Combine()
	require.NoError(t, err)
	assert.Equal(t, s.CombinedPath(), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// One header, then rows in sorted filename order
	want := "label,window_index,sample_0,sample_1\n" +
		"SINE,0,1,2\n" +
		"SQUARE,0,5,6\n"
	assert.Equal(t, want, string(data))
}

func TestCombine_Idempotent(t *testing.T) {
	s := newTestStore(t)

	_, err := s.WriteLabel("SINE", []capture.Window{win(1, 2), win(3, 4)}, 2)
	require.NoError(t, err)
	_, err = s.WriteLabel("TRIANGLE", []capture.Window{win(7, 8)}, 2)
	require.NoError(t, err)

	path, err := s.Combine()
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = s.Combine()
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCombine_PicksUpNewLabels(t *testing.T) {
	s := newTestStore(t)

	_, err := s.WriteLabel("SINE", []capture.Window{win(1, 2)}, 2)
	require.NoError(t, err)
	_, err = s.Combine()
	require.NoError(t, err)

	_, err = s.WriteLabel("SAWTOOTH", []capture.Window{win(3, 4)}, 2)
	require.NoError(t, err)
	path, err := s.Combine()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "label,window_index,sample_0,sample_1\n" +
		"SAWTOOTH,0,3,4\n" +
		"SINE,0,1,2\n"
	assert.Equal(t, want, string(data))
}

func TestCombine_NoInputs(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Combine()
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	s := newTestStore(t)

	_, err := s.WriteLabel("SQUARE", []capture.Window{win(5, 6)}, 2)
	require.NoError(t, err)
	_, err = s.WriteLabel("SINE", []capture.Window{win(1, 2), win(3, 4)}, 2)
	require.NoError(t, err)

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "SINE", infos[0].Label)
	assert.Equal(t, 2, infos[0].Windows)
	assert.Equal(t, "SQUARE", infos[1].Label)
	assert.Equal(t, 1, infos[1].Windows)

	assert.False(t, s.HasCombined())
	_, err = s.Combine()
	require.NoError(t, err)
	assert.True(t, s.HasCombined())
}

func TestList_EmptyStore(t *testing.T) {
	s := newTestStore(t)
	infos, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}
