package adaptengine

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// CycleLogger is the interface for reassessment cycle logging.
type CycleLogger interface {
	LogCycle(cycle CycleLog) error
}

// NewCycleLogFilePath returns a file path keyed by user so logs produced
// for different plans are easy to tell apart.
func NewCycleLogFilePath(userID string) string {
	return fmt.Sprintf("./logs/%d.%s.json", time.Now().Unix(), userID)
}

// CycleLog records the full story of one reassessment cycle.
type CycleLog struct {
	UserID     string           `json:"user_id"`
	Cycle      int              `json:"cycle"`
	Timestamp  time.Time        `json:"timestamp"`
	State      string           `json:"state"`
	Snapshot   ProgressSnapshot `json:"snapshot"`
	Adjustment PlanAdjustment   `json:"adjustment"`
	Committed  bool             `json:"committed"`
	Warnings   []string         `json:"warnings,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// FileCycleLogger logs to a writer, accumulating cycles and flushing at the end.
type FileCycleLogger struct {
	cycles []CycleLog
	writer io.Writer
}

// NewFileCycleLogger creates a new file-based cycle logger.
func NewFileCycleLogger(writer io.Writer) *FileCycleLogger {
	return &FileCycleLogger{
		cycles: make([]CycleLog, 0),
		writer: writer,
	}
}

// LogCycle buffers a cycle entry (does not flush immediately).
func (fcl *FileCycleLogger) LogCycle(cycle CycleLog) error {
	fcl.cycles = append(fcl.cycles, cycle)
	return nil
}

// Flush flushes all accumulated cycles to the writer.
func (fcl *FileCycleLogger) Flush() error {
	if fcl.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"reassessment_session": map[string]any{
			"timestamp": time.Now(),
			"cycles":    fcl.cycles,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cycle log: %w", err)
	}

	if _, err := fcl.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write cycle log: %w", err)
	}

	// Clear the buffer after successful write
	fcl.cycles = fcl.cycles[:0]
	return nil
}

// NoOpCycleLogger discards all log entries.
type NoOpCycleLogger struct{}

// NewNoOpCycleLogger creates a new no-op cycle logger.
func NewNoOpCycleLogger() *NoOpCycleLogger {
	return &NoOpCycleLogger{}
}

// LogCycle discards the cycle log (no-op).
func (nop *NoOpCycleLogger) LogCycle(cycle CycleLog) error {
	return nil
}

// StdoutCycleLogger logs each cycle as a JSON line to stdout (for Lambda/CloudWatch).
type StdoutCycleLogger struct{}

// NewStdoutCycleLogger creates a new stdout-based cycle logger.
func NewStdoutCycleLogger() *StdoutCycleLogger {
	return &StdoutCycleLogger{}
}

// LogCycle writes the cycle as a JSON line to os.Stdout.
func (l *StdoutCycleLogger) LogCycle(cycle CycleLog) error {
	data, err := json.Marshal(cycle)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
