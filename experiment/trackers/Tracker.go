// Package trackers implements tracking and saving of data generated
// during an experiment
package trackers

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/mlexamples/gymrl/timestep"
)

// Tracker tracks data generated during an experiment and saves it to
// disk. Track should be called on every timestep of the experiment.
type Tracker interface {
	Track(t ts.TimeStep)
	Save() error
}

// LoadFloat64 reads back a []float64 saved by a Tracker
func LoadFloat64(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadfloat64: could not open data "+
			"file: %v", err)
	}
	defer file.Close()

	var data []float64
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loadfloat64: could not decode data: %v",
			err)
	}
	return data, nil
}
