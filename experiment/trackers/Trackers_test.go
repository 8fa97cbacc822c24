package trackers_test

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/mlexamples/gymrl/experiment/trackers"
	ts "github.com/mlexamples/gymrl/timestep"
)

// episode feeds a tracker one complete episode of the given length,
// with the given reward on every step after the first
func episode(tr trackers.Tracker, length int, reward float64) {
	obs := mat.NewVecDense(1, nil)

	tr.Track(ts.New(ts.First, 0, 0.99, obs, 0))
	for i := 1; i < length; i++ {
		tr.Track(ts.New(ts.Mid, reward, 0.99, obs, i))
	}
	tr.Track(ts.New(ts.Last, reward, 0, obs, length))
}

func TestReturnSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")
	r := trackers.NewReturn(filename)

	episode(r, 3, 1.5)
	episode(r, 2, -1.0)

	if err := r.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := trackers.LoadFloat64(filename)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := []float64{4.5, -2.0}
	if len(data) != len(want) {
		t.Fatalf("want %v returns, have %v", len(want), len(data))
	}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("return %v: want %v, have %v", i, want[i], data[i])
		}
	}
}

func TestEpisodeLengthSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "lengths.bin")
	l := trackers.NewEpisodeLength(filename)

	episode(l, 3, 0.0)
	episode(l, 5, 0.0)

	if err := l.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := trackers.LoadFloat64(filename)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := []float64{3, 5}
	if len(data) != len(want) {
		t.Fatalf("want %v lengths, have %v", len(want), len(data))
	}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("length %v: want %v, have %v", i, want[i], data[i])
		}
	}
}

func TestLoadFloat64MissingFile(t *testing.T) {
	if _, err := trackers.LoadFloat64(
		filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("loading a nonexistent file should be an error")
	}
}
