package sim

import (
	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/fleet"
)

// MultiWriter fans state and alert rows out to multiple writers.
type MultiWriter struct {
	stateWriters []StateWriter
	alertWriters []AlertWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(sws []StateWriter, aws []AlertWriter) *MultiWriter {
	return &MultiWriter{stateWriters: sws, alertWriters: aws}
}

// WriteState sends a state row to all writers.
func (mw *MultiWriter) WriteState(row fleet.StateRow) error {
	for _, w := range mw.stateWriters {
		if err := w.WriteState(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteStates sends multiple state rows to all writers, using batch where
// supported.
func (mw *MultiWriter) WriteStates(rows []fleet.StateRow) error {
	for _, w := range mw.stateWriters {
		if bw, ok := w.(batchStateWriter); ok {
			if err := bw.WriteStates(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteState(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteAlert sends an alert row to all alert writers.
func (mw *MultiWriter) WriteAlert(row alert.Row) error {
	for _, w := range mw.alertWriters {
		if err := w.WriteAlert(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlerts sends multiple alert rows to all alert writers, using batch
// where supported.
func (mw *MultiWriter) WriteAlerts(rows []alert.Row) error {
	for _, w := range mw.alertWriters {
		if bw, ok := w.(batchAlertWriter); ok {
			if err := bw.WriteAlerts(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteAlert(r); err != nil {
				return err
			}
		}
	}
	return nil
}
