// Package override validates human acknowledgments of blocked verdicts and
// keeps the append-only audit trail of every accepted override.
package override

import (
	"context"
	"sync"
	"time"

	"github.com/aristath/gatekeeper/internal/domain"
)

// AuditRecord is one accepted override
type AuditRecord struct {
	ID           string                  `json:"id" msgpack:"id"`
	Timestamp    time.Time               `json:"timestamp" msgpack:"timestamp"`
	AuthorizedBy string                  `json:"authorized_by" msgpack:"authorized_by"`
	Reason       string                  `json:"reason" msgpack:"reason"`
	VerdictType  domain.FinalVerdictType `json:"verdict_type" msgpack:"verdict_type"`
	Date         time.Time               `json:"date" msgpack:"date"`
	ExpiryDate   *time.Time              `json:"expiry_date,omitempty" msgpack:"expiry_date"`
	Gates        []domain.GateName       `json:"gates" msgpack:"gates"`
}

// AuditLog is an append-only store of override records.
// Implementations must be safe for concurrent use.
type AuditLog interface {
	Append(ctx context.Context, rec AuditRecord) error
	// List returns records in append order; an empty authorizedBy returns all
	List(ctx context.Context, authorizedBy string) ([]AuditRecord, error)
}

// MemoryLog keeps records in process memory
type MemoryLog struct {
	mu      sync.RWMutex
	records []AuditRecord
}

// NewMemoryLog creates an empty in-memory audit log
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append stores a copy of the record
func (m *MemoryLog) Append(ctx context.Context, rec AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, cloneRecord(rec))
	return nil
}

// List returns copies of the stored records
func (m *MemoryLog) List(ctx context.Context, authorizedBy string) ([]AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]AuditRecord, 0, len(m.records))
	for _, rec := range m.records {
		if authorizedBy == "" || rec.AuthorizedBy == authorizedBy {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

func cloneRecord(rec AuditRecord) AuditRecord {
	out := rec
	out.Gates = append([]domain.GateName(nil), rec.Gates...)
	if rec.ExpiryDate != nil {
		e := *rec.ExpiryDate
		out.ExpiryDate = &e
	}
	return out
}

func filterRecords(records []AuditRecord, authorizedBy string) []AuditRecord {
	if authorizedBy == "" {
		return records
	}
	out := records[:0]
	for _, rec := range records {
		if rec.AuthorizedBy == authorizedBy {
			out = append(out, rec)
		}
	}
	return out
}
