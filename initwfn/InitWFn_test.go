package initwfn_test

import (
	"encoding/json"
	"testing"

	"github.com/mlexamples/gymrl/initwfn"
)

// roundTrip marshals a weight initializer to JSON and unmarshals it
// into a fresh InitWFn
func roundTrip(t *testing.T, w *initwfn.InitWFn) *initwfn.InitWFn {
	t.Helper()

	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got := &initwfn.InitWFn{}
	if err := json.Unmarshal(data, got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.InitWFn() == nil {
		t.Fatal("unmarshalled InitWFn has no wrapped initializer")
	}
	return got
}

func TestGaussianJSON(t *testing.T) {
	w, err := initwfn.NewGaussian(0.5, 1.5)
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	got := roundTrip(t, w)
	if got.Type != initwfn.Gaussian {
		t.Errorf("type: want %v, have %v", initwfn.Gaussian, got.Type)
	}

	config, ok := got.Config.(initwfn.GaussianConfig)
	if !ok {
		t.Fatalf("config: want GaussianConfig, have %T", got.Config)
	}
	if config.Mean != 0.5 || config.StdDev != 1.5 {
		t.Errorf("config: want mean 0.5 stddev 1.5, have %v", config)
	}
}

func TestGlorotUJSON(t *testing.T) {
	w, err := initwfn.NewGlorotU(2.0)
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	got := roundTrip(t, w)
	if got.Type != initwfn.GlorotU {
		t.Errorf("type: want %v, have %v", initwfn.GlorotU, got.Type)
	}

	config, ok := got.Config.(initwfn.GlorotUConfig)
	if !ok {
		t.Fatalf("config: want GlorotUConfig, have %T", got.Config)
	}
	if config.Gain != 2.0 {
		t.Errorf("config: want gain 2, have %v", config.Gain)
	}
}

func TestGlorotNJSON(t *testing.T) {
	w, err := initwfn.NewGlorotN(1.0)
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	got := roundTrip(t, w)
	if got.Type != initwfn.GlorotN {
		t.Errorf("type: want %v, have %v", initwfn.GlorotN, got.Type)
	}

	config, ok := got.Config.(initwfn.GlorotNConfig)
	if !ok {
		t.Fatalf("config: want GlorotNConfig, have %T", got.Config)
	}
	if config.Gain != 1.0 {
		t.Errorf("config: want gain 1, have %v", config.Gain)
	}
}

func TestZeroesJSON(t *testing.T) {
	w, err := initwfn.NewZeroes()
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	got := roundTrip(t, w)
	if got.Type != initwfn.Zeroes {
		t.Errorf("type: want %v, have %v", initwfn.Zeroes, got.Type)
	}
	if _, ok := got.Config.(initwfn.ZeroesConfig); !ok {
		t.Fatalf("config: want ZeroesConfig, have %T", got.Config)
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	w := &initwfn.InitWFn{}
	data := []byte(`{"Type": "Bogus", "Config": {}}`)
	if err := json.Unmarshal(data, w); err == nil {
		t.Error("unknown initializer type should be an error")
	}
}
