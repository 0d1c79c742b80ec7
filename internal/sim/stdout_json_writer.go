package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/fleet"
)

// JSONStdoutWriter prints state and alert rows as JSON lines to STDOUT.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// WriteState outputs a robot state row in JSON format.
func (w *JSONStdoutWriter) WriteState(row fleet.StateRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteStates outputs multiple robot state rows.
func (w *JSONStdoutWriter) WriteStates(rows []fleet.StateRow) error {
	for _, r := range rows {
		_ = w.WriteState(r)
	}
	return nil
}

// WriteAlert outputs an alert row in JSON format.
func (w *JSONStdoutWriter) WriteAlert(row alert.Row) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteAlerts outputs multiple alert rows.
func (w *JSONStdoutWriter) WriteAlerts(rows []alert.Row) error {
	for _, r := range rows {
		_ = w.WriteAlert(r)
	}
	return nil
}
