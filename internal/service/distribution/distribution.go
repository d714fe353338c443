package distribution

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyang/agentflow/internal/adapter/tabular"
	"github.com/alanyang/agentflow/internal/domain/apperr"
	domaindist "github.com/alanyang/agentflow/internal/domain/distribution"
	"github.com/alanyang/agentflow/internal/domain/event"
	"github.com/alanyang/agentflow/internal/domain/record"
	portdist "github.com/alanyang/agentflow/internal/port/distribution"
	portdistributor "github.com/alanyang/agentflow/internal/port/distributor"
	portbus "github.com/alanyang/agentflow/internal/port/eventbus"
	portidem "github.com/alanyang/agentflow/internal/port/idempotency"
	"github.com/alanyang/agentflow/internal/service/distributor"
)

const opUpload = "upload"

// Outcomes reported to the Recorder.
const (
	OutcomeSuccess  = "success"
	OutcomeNoAgents = "no_agents"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

var (
	ErrTooManyRecords       = apperr.Validation("File has too many rows")
	ErrIdempotencyKeyReused = apperr.Validation("Idempotency-Key was already used for a different file")
)

// Recorder receives one observation per finished upload.
type Recorder interface {
	RecordUpload(outcome string, total, valid int)
}

type nopRecorder struct{}

func (nopRecorder) RecordUpload(string, int, int) {}

type Limits struct {
	// MaxRecords caps the data rows read from one file; 0 means unlimited.
	MaxRecords int
}

type UploadInput struct {
	FileName    string
	ContentType string
	Body        io.Reader
	// IdempotencyKey is optional. A repeated key with the same file content
	// replays the stored summary; with different content it is rejected.
	IdempotencyKey string
}

// storedUpload is the result kept under an idempotency key. Fingerprint is the
// SHA-256 of the file content the key was first used with.
type storedUpload struct {
	Fingerprint string             `json:"fingerprint"`
	Summary     domaindist.Summary `json:"summary"`
}

// Service runs the upload-and-distribute pipeline and serves the listing.
type Service struct {
	dist     portdistributor.Distributor
	repo     portdist.Repository
	idem     portidem.Store
	bus      portbus.EventBus
	limits   Limits
	recorder Recorder
	now      func() time.Time
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	dist portdistributor.Distributor,
	repo portdist.Repository,
	idem portidem.Store,
	bus portbus.EventBus,
	limits Limits,
	opts ...Option,
) *Service {
	s := &Service{
		dist:     dist,
		repo:     repo,
		idem:     idem,
		bus:      bus,
		limits:   limits,
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Upload parses the file, assigns its valid rows round-robin across the roster
// and stores one entry per agent that received rows. Nothing is written
// unless every entry is.
func (s *Service) Upload(ctx context.Context, in UploadInput) (domaindist.Summary, error) {
	var fingerprint string
	if in.IdempotencyKey != "" {
		fp, body, err := fingerprintBody(in.Body)
		if err != nil {
			s.recorder.RecordUpload(OutcomeFailed, 0, 0)
			return domaindist.Summary{}, fmt.Errorf("read upload: %w", err)
		}
		fingerprint, in.Body = fp, body

		summary, ok, err := s.replay(ctx, in.IdempotencyKey, fingerprint)
		if err != nil {
			s.recorder.RecordUpload(OutcomeRejected, 0, 0)
			return domaindist.Summary{}, err
		}
		if ok {
			return summary, nil
		}
	}

	kind, err := tabular.DetectKind(in.ContentType, in.FileName)
	if err != nil {
		s.recorder.RecordUpload(OutcomeRejected, 0, 0)
		return domaindist.Summary{}, err
	}

	// The roster is checked before the file is read so an empty roster never
	// costs a parse.
	agents, err := s.dist.Snapshot(ctx)
	if err != nil {
		s.recorder.RecordUpload(outcomeFor(err), 0, 0)
		return domaindist.Summary{}, err
	}

	records, total, err := s.readRecords(ctx, in.Body, kind)
	if err != nil {
		s.recorder.RecordUpload(outcomeFor(err), total, len(records))
		return domaindist.Summary{}, err
	}

	groups, err := s.dist.Partition(records, agents)
	if err != nil {
		s.recorder.RecordUpload(outcomeFor(err), total, len(records))
		return domaindist.Summary{}, err
	}

	batchID := uuid.New()
	uploadDate := s.now().UTC()
	written := make([]domaindist.Group, 0, len(groups))
	entries := make([]domaindist.Entry, 0, len(groups))
	for _, g := range groups {
		if len(g.Records) == 0 {
			continue
		}
		written = append(written, g)
		entries = append(entries, domaindist.NewEntry(batchID, g.Agent.ID, g.Records, in.FileName, uploadDate))
	}

	if len(entries) > 0 {
		if _, err := s.repo.CreateBatch(ctx, entries); err != nil {
			s.recorder.RecordUpload(OutcomeFailed, total, len(records))
			return domaindist.Summary{}, fmt.Errorf("store distribution batch: %w", err)
		}
		if err := s.bus.Publish(ctx, event.New(event.TypeDistributionCreated, batchID)); err != nil {
			slog.ErrorContext(ctx, "failed to publish DistributionCreated event", "batch_id", batchID, "error", err)
		}
	}

	summary := domaindist.BuildSummary(total, len(records), len(agents), written)
	s.recorder.RecordUpload(OutcomeSuccess, total, len(records))
	slog.InfoContext(ctx, "upload distributed",
		"batch_id", batchID,
		"file_name", in.FileName,
		"format", kind.String(),
		"total", total,
		"valid", len(records),
		"agents", len(agents),
		"entries", len(entries),
	)

	if in.IdempotencyKey != "" {
		s.remember(ctx, in.IdempotencyKey, fingerprint, summary)
	}
	return summary, nil
}

// readRecords drains the file and returns the valid records together with the
// number of data rows seen. Rows that could not be split count as invalid, one
// per physical line they consumed.
func (s *Service) readRecords(ctx context.Context, body io.Reader, kind tabular.Kind) ([]record.Record, int, error) {
	rows, err := tabular.Open(body, kind)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []record.Record
	total := 0
	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !errors.Is(err, tabular.ErrMalformedRow) {
			return nil, total, err
		}

		consumed := 1
		var malformed *tabular.MalformedRowError
		if errors.As(err, &malformed) && malformed.Lines > 1 {
			consumed = malformed.Lines
			slog.WarnContext(ctx, "malformed row swallowed following lines",
				"line", malformed.Line, "lines", malformed.Lines, "error", malformed.Err)
		}
		total += consumed
		if s.limits.MaxRecords > 0 && total > s.limits.MaxRecords {
			return nil, total, ErrTooManyRecords
		}
		if err != nil {
			continue
		}
		if rec, ok := record.Validate(row); ok {
			records = append(records, rec)
		}
	}
	return records, total, nil
}

// replay returns the summary stored under key. A failed lookup falls through
// to a normal upload; a key first used with other content is an error.
func (s *Service) replay(ctx context.Context, key, fingerprint string) (domaindist.Summary, bool, error) {
	raw, found, err := s.idem.Check(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "idempotency check failed", "key", key, "error", err)
		return domaindist.Summary{}, false, nil
	}
	if !found {
		return domaindist.Summary{}, false, nil
	}
	var stored storedUpload
	if err := json.Unmarshal(raw, &stored); err != nil {
		slog.WarnContext(ctx, "stored upload result unreadable", "key", key, "error", err)
		return domaindist.Summary{}, false, nil
	}
	if stored.Fingerprint != fingerprint {
		slog.WarnContext(ctx, "idempotency key reused with different content", "key", key)
		return domaindist.Summary{}, false, ErrIdempotencyKeyReused
	}
	slog.InfoContext(ctx, "upload replayed", "key", key)
	return stored.Summary, true, nil
}

func (s *Service) remember(ctx context.Context, key, fingerprint string, summary domaindist.Summary) {
	raw, err := json.Marshal(storedUpload{Fingerprint: fingerprint, Summary: summary})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode upload result", "key", key, "error", err)
		return
	}
	if err := s.idem.Store(ctx, key, opUpload, raw); err != nil {
		slog.ErrorContext(ctx, "failed to store upload result", "key", key, "error", err)
	}
}

// fingerprintBody hashes the whole body and returns a reader positioned at its
// start. Seekable bodies (multipart files) are rewound, others are buffered.
func fingerprintBody(body io.Reader) (string, io.Reader, error) {
	h := sha256.New()
	if rs, ok := body.(io.ReadSeeker); ok {
		if _, err := io.Copy(h, rs); err != nil {
			return "", nil, err
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return "", nil, err
		}
		return hex.EncodeToString(h.Sum(nil)), rs, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(io.MultiWriter(h, &buf), body); err != nil {
		return "", nil, err
	}
	return hex.EncodeToString(h.Sum(nil)), &buf, nil
}

// List returns stored entries with their agent joined, newest upload first.
func (s *Service) List(ctx context.Context, filters domaindist.ListFilters) ([]domaindist.Entry, error) {
	entries, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list distributions: %w", err)
	}
	return entries, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, distributor.ErrNoAgents):
		return OutcomeNoAgents
	case errors.Is(err, apperr.ErrValidation):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}
