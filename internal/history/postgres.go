package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/parsererror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS bank_statements (
	id             uuid PRIMARY KEY,
	upload_date    timestamptz NOT NULL DEFAULT now(),
	file_name      text NOT NULL,
	bank_type      text NOT NULL,
	original_data  jsonb,
	processed_data jsonb
);
CREATE INDEX IF NOT EXISTS bank_statements_upload_date_idx ON bank_statements (upload_date DESC);
CREATE TABLE IF NOT EXISTS conversions (
	id                  uuid PRIMARY KEY,
	bank_statement_id   uuid NOT NULL REFERENCES bank_statements (id),
	conversion_date     timestamptz NOT NULL DEFAULT now(),
	conversion_format   text NOT NULL,
	conversion_settings jsonb
);
CREATE INDEX IF NOT EXISTS conversions_statement_idx ON conversions (bank_statement_id);
`

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MaxConnLifetime time.Duration
}

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPostgresStore connects, pings and migrates.
func NewPostgresStore(ctx context.Context, cfg PoolConfig, logger logging.Logger) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns) // #nosec G115 -- bounded by configuration validation
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, logger: logging.OrDiscard(logger)}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables when they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create history tables: %w", err)
	}
	return nil
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: id != uuid.Nil}
}

func fromPgUUID(u pgtype.UUID) uuid.UUID {
	if !u.Valid {
		return uuid.Nil
	}
	return uuid.UUID(u.Bytes)
}

func (s *PostgresStore) SaveStatement(ctx context.Context, st *Statement) (uuid.UUID, error) {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	if st.UploadDate.IsZero() {
		st.UploadDate = time.Now().UTC()
	}

	original, err := json.Marshal(st.Original)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode original data: %w", err)
	}
	processed, err := json.Marshal(processedData{Transactions: st.Transactions, Ledger: encodeLedger(st.Ledger)})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode processed data: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO bank_statements (id, upload_date, file_name, bank_type, original_data, processed_data)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		toPgUUID(st.ID), st.UploadDate, st.FileName, st.BankType, original, processed)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save statement: %w", err)
	}

	s.logger.Debug("Saved statement",
		logging.F(logging.FieldStatementID, st.ID.String()),
		logging.F(logging.FieldFile, st.FileName))
	return st.ID, nil
}

func (s *PostgresStore) SaveConversion(ctx context.Context, c *Conversion) (uuid.UUID, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ConversionDate.IsZero() {
		c.ConversionDate = time.Now().UTC()
	}
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode conversion settings: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO conversions (id, bank_statement_id, conversion_date, conversion_format, conversion_settings)
		 SELECT $1::uuid, id, $3::timestamptz, $4::text, $5::jsonb FROM bank_statements WHERE id = $2`,
		toPgUUID(c.ID), toPgUUID(c.StatementID), c.ConversionDate, c.Format, settings)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save conversion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uuid.Nil, fmt.Errorf("statement %s: %w", c.StatementID, parsererror.ErrNotFound)
	}
	return c.ID, nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, upload_date, file_name, bank_type FROM bank_statements
		 ORDER BY upload_date DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0, limit)
	for rows.Next() {
		var (
			id  pgtype.UUID
			sum Summary
		)
		if err := rows.Scan(&id, &sum.UploadDate, &sum.FileName, &sum.BankType); err != nil {
			return nil, fmt.Errorf("failed to scan statement: %w", err)
		}
		sum.ID = fromPgUUID(id)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Statement, error) {
	var (
		pgID                pgtype.UUID
		original, processed []byte
		st                  Statement
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, upload_date, file_name, bank_type, original_data, processed_data
		 FROM bank_statements WHERE id = $1`, toPgUUID(id)).
		Scan(&pgID, &st.UploadDate, &st.FileName, &st.BankType, &original, &processed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("statement %s: %w", id, parsererror.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load statement: %w", err)
	}
	st.ID = fromPgUUID(pgID)

	if len(original) > 0 {
		if err := json.Unmarshal(original, &st.Original); err != nil {
			return nil, fmt.Errorf("failed to decode original data: %w", err)
		}
	}
	if len(processed) > 0 {
		var p processedData
		if err := json.Unmarshal(processed, &p); err != nil {
			return nil, fmt.Errorf("failed to decode processed data: %w", err)
		}
		st.Transactions = p.Transactions
		st.Ledger = decodeLedger(p.Ledger)
	}
	if st.Original.Columns == nil {
		st.Original = models.NewRawTable(nil, nil)
	}
	return &st, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx,
		`SELECT
			(SELECT count(*) FROM bank_statements),
			(SELECT count(*) FROM conversions),
			(SELECT count(*) FROM bank_statements WHERE upload_date >= $1)`,
		time.Now().Add(-RecentWindow)).
		Scan(&st.TotalStatements, &st.TotalConversions, &st.RecentStatements)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute history stats: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) CleanOlderThan(ctx context.Context, days int) (int, error) {
	limit := cutoff(time.Now(), days)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op after commit

	if _, err := tx.Exec(ctx,
		`DELETE FROM conversions WHERE bank_statement_id IN
		 (SELECT id FROM bank_statements WHERE upload_date < $1)`, limit); err != nil {
		return 0, fmt.Errorf("failed to delete conversions: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM bank_statements WHERE upload_date < $1`, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to delete statements: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	removed := int(tag.RowsAffected())
	s.logger.Info("Cleaned conversion history",
		logging.F(logging.FieldCount, removed),
		logging.F("days", days))
	return removed, nil
}

func (s *PostgresStore) Purge(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM conversions`); err != nil {
		return fmt.Errorf("failed to delete conversions: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM bank_statements`); err != nil {
		return fmt.Errorf("failed to delete statements: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.Warn("Purged conversion history")
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
