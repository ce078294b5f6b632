// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Link           Link
	LastErrorCode  Code
	SecondsInError uint16
	PrinterState   uint16
}
