package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/vanshika/fintrace/ringwatch/internal/domain"
)

// WriteCSV serializes txs with the header ParseCSV expects.
func WriteCSV(w io.Writer, txs []domain.Transaction) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(RequiredColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range txs {
		row := []string{tx.ID, tx.SenderID, tx.ReceiverID, tx.Amount.StringFixed(2), tx.Timestamp.Format(domain.TimeLayout)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", tx.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
