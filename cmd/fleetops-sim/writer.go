package main

import (
	"os"

	"fleetops-sim/internal/sim"
)

// newWriters sets up state and alert writers based on flags and env vars.
// It returns the writers and a cleanup function to close any resources.
func newWriters(printOnly bool, logFile string) (sim.StateWriter, sim.AlertWriter, func(), error) {
	cleanup := func() {}

	writer, alertWriter, err := baseWriters(printOnly)
	if err != nil {
		return nil, nil, nil, err
	}
	if logFile == "" {
		return writer, alertWriter, cleanup, nil
	}

	fw, err := sim.NewFileWriter(logFile, logFile+".alerts")
	if err != nil {
		return nil, nil, nil, err
	}
	mw := sim.NewMultiWriter(
		[]sim.StateWriter{writer, fw},
		[]sim.AlertWriter{alertWriter, fw},
	)
	cleanup = func() { fw.Close() }
	return mw, mw, cleanup, nil
}

// baseWriters chooses the underlying writers based on the printOnly flag
// and GREPTIMEDB_ENDPOINT.
func baseWriters(printOnly bool) (sim.StateWriter, sim.AlertWriter, error) {
	if printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		w := sim.NewJSONStdoutWriter()
		return w, w, nil
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	w, err := sim.NewGreptimeDBWriter(endpoint, "public")
	if err != nil {
		return nil, nil, err
	}
	return w, w, nil
}
