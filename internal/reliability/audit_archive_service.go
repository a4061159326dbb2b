package reliability

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/modules/override"
)

const (
	archiveFilePrefix = "audit-"
	archiveFileSuffix = ".jsonl.gz"
	archiveTimeLayout = "2006-01-02-150405.000000000"

	// Keys written before the nanosecond stamp and suffix
	legacyArchiveTimeLayout = "2006-01-02-150405"

	// Minimum number of archives kept by pruning regardless of retention
	minArchivesToKeep = 3
)

// ArchiveInfo describes one uploaded audit archive
type ArchiveInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	Records   int       `json:"records"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum,omitempty"`
}

// ArchiveObserver is told about every archive attempt
type ArchiveObserver interface {
	ObserveArchive(err error)
}

// AuditArchiveService snapshots the override audit log into gzipped JSON
// lines and uploads it to object storage
type AuditArchiveService struct {
	source   override.AuditLog
	store    ObjectStore
	prefix   string
	clock    func() time.Time
	observer ArchiveObserver
	log      zerolog.Logger
}

// NewAuditArchiveService creates an archive service. A nil clock uses time.Now.
func NewAuditArchiveService(source override.AuditLog, store ObjectStore, prefix string, clock func() time.Time, log zerolog.Logger) *AuditArchiveService {
	if clock == nil {
		clock = time.Now
	}
	return &AuditArchiveService{
		source: source,
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		clock:  clock,
		log:    log.With().Str("service", "audit_archive").Logger(),
	}
}

// SetObserver registers the archive observer
func (s *AuditArchiveService) SetObserver(o ArchiveObserver) {
	s.observer = o
}

// CreateAndUpload snapshots the full audit log and uploads it
func (s *AuditArchiveService) CreateAndUpload(ctx context.Context) (ArchiveInfo, error) {
	info, err := s.createAndUpload(ctx)
	if s.observer != nil {
		s.observer.ObserveArchive(err)
	}
	return info, err
}

func (s *AuditArchiveService) createAndUpload(ctx context.Context) (ArchiveInfo, error) {
	s.log.Info().Msg("Starting audit archive")
	startTime := time.Now()

	records, err := s.source.List(ctx, "")
	if err != nil {
		return ArchiveInfo{}, fmt.Errorf("failed to snapshot audit log: %w", err)
	}

	payload, err := compressRecords(records)
	if err != nil {
		return ArchiveInfo{}, err
	}

	sum := sha256.Sum256(payload)
	checksum := "sha256:" + hex.EncodeToString(sum[:])
	timestamp := s.clock().UTC()
	key := s.key(timestamp)

	metadata := map[string]string{
		"sha256":  hex.EncodeToString(sum[:]),
		"records": strconv.Itoa(len(records)),
	}
	if err := s.store.Upload(ctx, key, bytes.NewReader(payload), metadata); err != nil {
		return ArchiveInfo{}, fmt.Errorf("failed to upload audit archive: %w", err)
	}

	info := ArchiveInfo{
		Key:       key,
		Timestamp: timestamp,
		Records:   len(records),
		SizeBytes: int64(len(payload)),
		Checksum:  checksum,
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("key", key).
		Int("records", len(records)).
		Int64("size_bytes", info.SizeBytes).
		Msg("Audit archive uploaded")

	return info, nil
}

// ListArchives returns the uploaded archives, newest first
func (s *AuditArchiveService) ListArchives(ctx context.Context) ([]ArchiveInfo, error) {
	objects, err := s.store.List(ctx, s.join(archiveFilePrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list audit archives: %w", err)
	}

	archives := make([]ArchiveInfo, 0, len(objects))
	for _, obj := range objects {
		name := path.Base(obj.Key)
		if !strings.HasPrefix(name, archiveFilePrefix) || !strings.HasSuffix(name, archiveFileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, archiveFilePrefix), archiveFileSuffix)
		ts, err := parseArchiveStamp(stamp)
		if err != nil {
			s.log.Warn().Str("key", obj.Key).Msg("Failed to parse timestamp from archive key")
			continue
		}
		archives = append(archives, ArchiveInfo{Key: obj.Key, Timestamp: ts, SizeBytes: obj.Size})
	}

	sort.Slice(archives, func(i, j int) bool {
		if archives[i].Timestamp.Equal(archives[j].Timestamp) {
			return archives[i].Key > archives[j].Key
		}
		return archives[i].Timestamp.After(archives[j].Timestamp)
	})
	return archives, nil
}

// PruneArchives deletes all but the newest keep archives. At least
// minArchivesToKeep are always kept; keep <= 0 disables pruning.
func (s *AuditArchiveService) PruneArchives(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	if keep < minArchivesToKeep {
		keep = minArchivesToKeep
	}

	archives, err := s.ListArchives(ctx)
	if err != nil {
		return 0, err
	}
	if len(archives) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, a := range archives[keep:] {
		if err := s.store.Delete(ctx, a.Key); err != nil {
			s.log.Error().Err(err).Str("key", a.Key).Msg("Failed to delete old audit archive")
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(archives)-deleted).
		Msg("Audit archive pruning completed")
	return deleted, nil
}

// key is unique per upload: the nanosecond stamp orders archives and the
// random suffix separates uploads that share a clock reading.
func (s *AuditArchiveService) key(ts time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return s.join(archiveFilePrefix + ts.Format(archiveTimeLayout) + "-" + suffix + archiveFileSuffix)
}

func parseArchiveStamp(stamp string) (time.Time, error) {
	if ts, err := time.Parse(legacyArchiveTimeLayout, stamp); err == nil {
		return ts, nil
	}
	i := strings.LastIndex(stamp, "-")
	if i < 0 {
		return time.Time{}, fmt.Errorf("no suffix in archive stamp %q", stamp)
	}
	return time.Parse(archiveTimeLayout, stamp[:i])
}

func (s *AuditArchiveService) join(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// compressRecords encodes records as gzipped JSON lines
func compressRecords(records []override.AuditRecord) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("failed to encode audit record %s: %w", rec.ID, err)
		}
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress audit archive: %w", err)
	}
	return buf.Bytes(), nil
}
