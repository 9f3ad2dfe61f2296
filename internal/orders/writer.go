package orders

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName returns the dated output name for a run day.
func FileName(date time.Time) string {
	return fmt.Sprintf("daily_orders_%s.csv", date.Format("2006-01-02"))
}

// WriteCSV writes the consolidated batch file, header always included. An
// empty record set still produces a valid header-only file: no signals is a
// normal outcome. Re-runs overwrite the same day's file.
func WriteCSV(dir string, date time.Time, records []Record) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(date))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create order file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header()); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			return "", fmt.Errorf("write row for %s: %w", rec.Symbol, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush order file: %w", err)
	}
	return path, nil
}
