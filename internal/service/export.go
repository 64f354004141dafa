package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vanshika/remitdesk/internal/domain"
	"github.com/vanshika/remitdesk/internal/normalize"
)

var csvHeader = []string{
	"Date",
	"Invoice Number",
	"Sender Name",
	"Receiver Name",
	"Amount Sent",
	"Fee",
	"Payment Mode",
	"Status",
	"Receipt URL",
}

// WriteCSV renders txs as a header plus one row per transaction. Every field
// is double-quoted with embedded quotes doubled; rows are joined by "\n" with
// no trailing newline.
func WriteCSV(w io.Writer, txs []domain.Transaction) error {
	rows := make([]string, 0, len(txs)+1)
	rows = append(rows, csvRow(csvHeader))
	for _, tx := range txs {
		rows = append(rows, csvRow(transactionRecord(tx)))
	}
	if _, err := io.WriteString(w, strings.Join(rows, "\n")); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ExportFilename names a CSV export produced at now.
func ExportFilename(now time.Time) string {
	return "transactions_" + now.UTC().Format("2006-01-02") + ".csv"
}

func transactionRecord(tx domain.Transaction) []string {
	date := ""
	if !tx.InvoiceDate.IsZero() {
		date = tx.InvoiceDate.UTC().Format("2006-01-02")
	}
	return []string{
		date,
		tx.InvoiceNumber,
		tx.Sender.FullName,
		tx.Receiver.FullName,
		normalize.FormatCents(tx.AmountSent),
		normalize.FormatCents(tx.Fee),
		tx.PaymentMode,
		tx.InvoiceStatus,
		tx.ReceiptURL,
	}
}

func csvRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
