package sim

import (
	"encoding/json"
	"os"

	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/fleet"
)

// FileWriter appends state and alert rows to JSONL files.
type FileWriter struct {
	stateFile *os.File
	alertFile *os.File
	stateEnc  *json.Encoder
	alertEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. alertPath may be empty to skip the
// alert log.
func NewFileWriter(statePath, alertPath string) (*FileWriter, error) {
	sf, err := os.Create(statePath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{stateFile: sf, stateEnc: json.NewEncoder(sf)}
	if alertPath != "" {
		af, err := os.Create(alertPath)
		if err != nil {
			sf.Close()
			return nil, err
		}
		fw.alertFile = af
		fw.alertEnc = json.NewEncoder(af)
	}
	return fw, nil
}

// WriteState logs a single robot state row.
func (f *FileWriter) WriteState(row fleet.StateRow) error {
	return f.stateEnc.Encode(row)
}

// WriteStates logs multiple robot state rows.
func (f *FileWriter) WriteStates(rows []fleet.StateRow) error {
	for _, r := range rows {
		if err := f.WriteState(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlert logs a single alert row, if enabled.
func (f *FileWriter) WriteAlert(row alert.Row) error {
	if f.alertEnc == nil {
		return nil
	}
	return f.alertEnc.Encode(row)
}

// WriteAlerts logs multiple alert rows.
func (f *FileWriter) WriteAlerts(rows []alert.Row) error {
	for _, r := range rows {
		if err := f.WriteAlert(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.stateFile != nil {
		if e := f.stateFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.alertFile != nil {
		if e := f.alertFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
