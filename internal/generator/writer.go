package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanshika/fintrace/ringwatch/internal/ingest"
)

// WriteFile serializes the dataset's ledger as CSV at path, creating parent
// directories as needed.
func WriteFile(dataset Dataset, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := ingest.WriteCSV(file, dataset.Transactions); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
