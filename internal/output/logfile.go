package output

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Log is the tab-separated benchmark log accumulated across a sweep.
// one row per size step, columns fixed at creation.
type Log struct {
	f       *os.File
	columns int
}

// CreateLog starts a new log file with a title line, free-form header
// lines (one per target directory, typically) and a tab-separated
// column header
func CreateLog(path, title string, header []string, columns []string) (*Log, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file %s: %w", path, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s  %s\n", title, time.Now().Format(time.RFC3339)))
	for _, h := range header {
		sb.WriteString(h + "\n")
	}
	sb.WriteString(strings.Repeat("=", 100) + "\n")
	sb.WriteString(strings.Join(columns, "\t") + "\n")
	sb.WriteString(strings.Repeat("=", 100) + "\n")

	if _, err := f.WriteString(sb.String()); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write log header: %w", err)
	}

	return &Log{f: f, columns: len(columns)}, nil
}

// WriteRow appends one tab-separated row. the field count must match
// the column header the log was created with.
func (l *Log) WriteRow(fields ...string) error {
	if len(fields) != l.columns {
		return fmt.Errorf("log row has %d fields, want %d", len(fields), l.columns)
	}

	if _, err := l.f.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
		return fmt.Errorf("failed to append log row: %w", err)
	}
	return nil
}

// Close flushes and closes the log file, safe to call once per log
func (l *Log) Close() error {
	return l.f.Close()
}

// DefaultLogName builds the timestamped log file name the original
// tool used when no explicit path is given
func DefaultLogName(prefix string) string {
	return fmt.Sprintf("%s_%s.log", prefix, time.Now().Format("20060102_150405"))
}
