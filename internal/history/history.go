// Package history records converted statements and the exports made from
// them, with retention cleanup.
package history

import (
	"context"
	"time"

	"fjacquet/ekstre-csv/internal/models"

	"github.com/google/uuid"
)

// RecentWindow is the period Stats counts as recent.
const RecentWindow = 30 * 24 * time.Hour

// Statement is one uploaded and converted file.
type Statement struct {
	ID           uuid.UUID                     `json:"id"`
	UploadDate   time.Time                     `json:"upload_date"`
	FileName     string                        `json:"file_name"`
	BankType     string                        `json:"bank_type"`
	Original     models.RawTable               `json:"original_data"`
	Transactions []models.CanonicalTransaction `json:"transactions"`
	Ledger       models.LedgerTable            `json:"ledger"`
}

// processedData is the stored shape of a statement's converted tables.
type processedData struct {
	Transactions []models.CanonicalTransaction `json:"transactions"`
	Ledger       []ledgerRow                   `json:"ledger"`
}

// ledgerRow keeps the separator flag, which LedgerEntry leaves out of JSON.
type ledgerRow struct {
	models.LedgerEntry
	Separator bool `json:"is_separator,omitempty"`
}

func encodeLedger(t models.LedgerTable) []ledgerRow {
	out := make([]ledgerRow, len(t))
	for i, e := range t {
		out[i] = ledgerRow{LedgerEntry: e, Separator: e.IsSeparator}
	}
	return out
}

func decodeLedger(rows []ledgerRow) models.LedgerTable {
	out := make(models.LedgerTable, len(rows))
	for i, r := range rows {
		e := r.LedgerEntry
		e.IsSeparator = r.Separator
		out[i] = e
	}
	return out
}

// Summary is the list view of a statement.
type Summary struct {
	ID         uuid.UUID `json:"id"`
	UploadDate time.Time `json:"upload_date"`
	FileName   string    `json:"file_name"`
	BankType   string    `json:"bank_type"`
}

// Summary returns the list view of s.
func (s Statement) Summary() Summary {
	return Summary{ID: s.ID, UploadDate: s.UploadDate, FileName: s.FileName, BankType: s.BankType}
}

// Conversion is one export of a stored statement.
type Conversion struct {
	ID             uuid.UUID         `json:"id"`
	StatementID    uuid.UUID         `json:"bank_statement_id"`
	ConversionDate time.Time         `json:"conversion_date"`
	Format         string            `json:"conversion_format"`
	Settings       map[string]string `json:"conversion_settings,omitempty"`
}

// Stats are the totals shown on the admin page.
type Stats struct {
	TotalStatements  int `json:"total_statements"`
	TotalConversions int `json:"total_conversions"`
	RecentStatements int `json:"recent_statements"`
}

// Store persists statements and conversions.
type Store interface {
	// SaveStatement assigns an id and upload date when they are zero.
	SaveStatement(ctx context.Context, s *Statement) (uuid.UUID, error)
	// SaveConversion fails with parsererror.ErrNotFound for an unknown
	// statement.
	SaveConversion(ctx context.Context, c *Conversion) (uuid.UUID, error)
	// Recent lists statements newest first.
	Recent(ctx context.Context, limit int) ([]Summary, error)
	Get(ctx context.Context, id uuid.UUID) (*Statement, error)
	Stats(ctx context.Context) (Stats, error)
	// CleanOlderThan deletes statements uploaded more than days ago along
	// with their conversions, and returns the number of statements removed.
	CleanOlderThan(ctx context.Context, days int) (int, error)
	Purge(ctx context.Context) error
	Close()
}

func cutoff(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}
