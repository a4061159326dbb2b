package override

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/gatekeeper/internal/database"
	"github.com/aristath/gatekeeper/internal/domain"
)

// SQLiteLog stores records in the override_audit table of a ledger database
type SQLiteLog struct {
	db  *database.DB
	log zerolog.Logger
}

// NewSQLiteLog creates a SQLite-backed audit log and applies its schema
func NewSQLiteLog(db *database.DB, log zerolog.Logger) (*SQLiteLog, error) {
	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate audit database: %w", err)
	}
	return &SQLiteLog{
		db:  db,
		log: log.With().Str("component", "sqlite_audit_log").Logger(),
	}, nil
}

// Append inserts the record. The full record is kept as a msgpack blob so
// fields added later do not need a schema change.
func (s *SQLiteLog) Append(ctx context.Context, rec AuditRecord) error {
	details, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode audit record: %w", err)
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO override_audit (id, recorded_at, authorized_by, verdict_type, reason, details)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Timestamp.UnixNano(), rec.AuthorizedBy, string(rec.VerdictType), rec.Reason, details,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("expected 1 row, wrote %d", n)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert audit record %s: %w", rec.ID, err)
	}

	s.log.Debug().Str("id", rec.ID).Str("authorized_by", rec.AuthorizedBy).Msg("Audit record stored")
	return nil
}

// List returns records ordered by insertion time
func (s *SQLiteLog) List(ctx context.Context, authorizedBy string) ([]AuditRecord, error) {
	query := `SELECT id, recorded_at, authorized_by, verdict_type, reason, details FROM override_audit`
	var args []interface{}
	if authorizedBy != "" {
		query += ` WHERE authorized_by = ?`
		args = append(args, authorizedBy)
	}
	query += ` ORDER BY recorded_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	records := []AuditRecord{}
	for rows.Next() {
		var (
			rec        AuditRecord
			recordedAt int64
			verdict    string
			details    []byte
		)
		if err := rows.Scan(&rec.ID, &recordedAt, &rec.AuthorizedBy, &verdict, &rec.Reason, &details); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		if err := msgpack.Unmarshal(details, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode audit record %s: %w", rec.ID, err)
		}
		// Indexed columns are authoritative
		rec.Timestamp = time.Unix(0, recordedAt).UTC()
		rec.VerdictType = domain.FinalVerdictType(verdict)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", err)
	}
	return records, nil
}
