package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/invoice"
	"invoiceledger/internal/ledger"
	"invoiceledger/internal/logger"
	"invoiceledger/internal/metrics"
	"invoiceledger/internal/port"
)

// MsgNoNewInvoices is reported when the mailbox holds no matching messages.
const MsgNoNewInvoices = "No new invoices in the inbox"

// IngestionReport summarises one mailbox run.
type IngestionReport struct {
	ProcessedCount int                   `json:"processed_count"`
	FailedCount    int                   `json:"failed_count"`
	Message        string                `json:"message"`
	LastInvoice    *domain.ParsedInvoice `json:"last_invoice,omitempty"`
}

// IngestionConfig holds the ingestion policy.
type IngestionConfig struct {
	MissingTotalAsZero bool
	Filter             port.MailFilter
	// WorkDir keeps a copy of every mailed attachment when set.
	WorkDir       string
	MaxFileBytes  int64
	ArchiveBucket string
	ArchivePrefix string
}

// IngestionDeps are the collaborators of the ingestion service. Mailbox,
// Archive, Notifier and Metrics are optional.
type IngestionDeps struct {
	Repo      port.ProjectRepository
	Resolver  ProjectResolver
	Extractor port.TextExtractor
	Mailbox   port.Mailbox
	Archive   port.ObjectStorage
	Notifier  port.Notifier
	Metrics   *metrics.Metrics
}

// IngestionService applies invoice documents to project ledgers.
type IngestionService interface {
	// ApplyUpload applies an uploaded invoice to the given project. An
	// invoice that was already applied is returned flagged, not as an error.
	ApplyUpload(ctx context.Context, projectID uuid.UUID, filename string, r io.Reader) (*domain.ParsedInvoice, error)
	// ProcessMailbox applies the PDF attachments of all unread supplier
	// messages. Only one run is active at a time.
	ProcessMailbox(ctx context.Context) (*IngestionReport, error)
}

type ingestionService struct {
	deps    IngestionDeps
	cfg     IngestionConfig
	log     zerolog.Logger
	polling sync.Mutex
}

// NewIngestionService creates a new IngestionService implementation.
func NewIngestionService(deps IngestionDeps, cfg IngestionConfig) IngestionService {
	return &ingestionService{
		deps: deps,
		cfg:  cfg,
		log:  logger.WithComponent("ingestion"),
	}
}

func (s *ingestionService) ApplyUpload(ctx context.Context, projectID uuid.UUID, filename string, r io.Reader) (*domain.ParsedInvoice, error) {
	project, err := s.deps.Repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !isPDF(filename) {
		return nil, domain.ErrUnsupportedFileType
	}

	data, err := s.read(r)
	if err != nil {
		return nil, err
	}

	inv, err := s.applyDocument(ctx, project, filename, data, domain.InvoiceSourceUpload)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *ingestionService) ProcessMailbox(ctx context.Context) (*IngestionReport, error) {
	if s.deps.Mailbox == nil {
		return nil, domain.ErrMailboxDisabled
	}
	if !s.polling.TryLock() {
		return nil, domain.ErrIngestionInProgress
	}
	defer s.polling.Unlock()

	messages, err := s.deps.Mailbox.FetchUnread(ctx, s.cfg.Filter)
	s.deps.Metrics.ObserveMailboxPoll(err)
	if err != nil {
		return nil, fmt.Errorf("fetching unread invoices: %w", err)
	}

	report := &IngestionReport{}
	if len(messages) == 0 {
		report.Message = MsgNoNewInvoices
		return report, nil
	}
	s.log.Info().Int("messages", len(messages)).Msg("processing unread invoice messages")

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		failed := 0
		for _, att := range msg.Attachments {
			if !isPDF(att.Filename) {
				continue
			}
			inv, err := s.processAttachment(ctx, att)
			if err != nil {
				failed++
				report.FailedCount++
				s.log.Error().Err(err).
					Uint32("uid", msg.UID).
					Str("filename", att.Filename).
					Msg("failed to process invoice attachment")
				continue
			}
			report.ProcessedCount++
			report.LastInvoice = inv
		}

		// a message with a failed attachment stays unread so the next run retries it
		if failed > 0 {
			continue
		}
		if err := s.deps.Mailbox.MarkSeen(ctx, msg.UID); err != nil {
			s.log.Warn().Err(err).Uint32("uid", msg.UID).Msg("failed to mark message as seen")
		}
	}

	if report.LastInvoice != nil && report.LastInvoice.HasWarnings() {
		report.Message = report.LastInvoice.ErrorMessage
	} else {
		report.Message = fmt.Sprintf("Successfully processed %d invoices from email", report.ProcessedCount)
	}
	s.log.Info().
		Int("processed", report.ProcessedCount).
		Int("failed", report.FailedCount).
		Msg("mailbox run finished")
	return report, nil
}

func (s *ingestionService) processAttachment(ctx context.Context, att port.Attachment) (*domain.ParsedInvoice, error) {
	if s.cfg.WorkDir != "" {
		dst := filepath.Join(s.cfg.WorkDir, filepath.Base(att.Filename))
		if err := os.WriteFile(dst, att.Data, 0o644); err != nil {
			return nil, fmt.Errorf("saving attachment %s: %w", att.Filename, err)
		}
	}

	inv, err := s.parse(ctx, att.Data)
	if err != nil {
		s.deps.Metrics.ObserveInvoice(domain.InvoiceSourceEmail, metrics.OutcomeFailed, 0)
		return nil, err
	}
	project, err := s.deps.Resolver.ResolveByAddress(ctx, inv.Address)
	if err != nil {
		s.deps.Metrics.ObserveInvoice(domain.InvoiceSourceEmail, metrics.OutcomeFailed, len(inv.SkippedLines))
		return nil, err
	}
	return s.reconcile(ctx, project, att.Filename, att.Data, inv, domain.InvoiceSourceEmail)
}

func (s *ingestionService) applyDocument(ctx context.Context, project *domain.Project, filename string, data []byte, source domain.InvoiceSource) (*domain.ParsedInvoice, error) {
	inv, err := s.parse(ctx, data)
	if err != nil {
		s.deps.Metrics.ObserveInvoice(source, metrics.OutcomeFailed, 0)
		return nil, err
	}
	return s.reconcile(ctx, project, filename, data, inv, source)
}

func (s *ingestionService) parse(ctx context.Context, data []byte) (*domain.ParsedInvoice, error) {
	text, err := s.deps.Extractor.Extract(ctx, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrNoExtractableText
	}
	return invoice.ParseText(text), nil
}

// reconcile merges inv into the project ledger, then archives the document
// and notifies the operator about warnings. Archive and notification
// failures are logged only.
func (s *ingestionService) reconcile(ctx context.Context, project *domain.Project, filename string, data []byte, inv *domain.ParsedInvoice, source domain.InvoiceSource) (*domain.ParsedInvoice, error) {
	opts := ledger.Options{MissingTotalAsZero: s.cfg.MissingTotalAsZero, Source: source}
	_, err := s.deps.Repo.Reconcile(ctx, project.ID, func(p *domain.Project) (*domain.LedgerChange, error) {
		return ledger.Reconcile(p, inv, opts)
	})
	switch {
	case errors.Is(err, domain.ErrInvoiceAlreadyUsed):
		// the unique index can catch a concurrent apply the ledger did not see
		if !inv.InvoiceAlreadyUsed {
			inv.InvoiceAlreadyUsed = true
			inv.ReplaceWarnings(ledger.WarnAlreadyUsed)
		}
	case err != nil:
		s.deps.Metrics.ObserveInvoice(source, metrics.OutcomeFailed, len(inv.SkippedLines))
		return nil, err
	}

	outcome := metrics.OutcomeApplied
	if inv.InvoiceAlreadyUsed {
		outcome = metrics.OutcomeDuplicate
	}
	s.deps.Metrics.ObserveInvoice(source, outcome, len(inv.SkippedLines))
	s.log.Info().
		Str("project", project.Name).
		Str("invoice", inv.InvoiceNumber).
		Str("source", string(source)).
		Str("outcome", outcome).
		Int("items", len(inv.Items)).
		Int("skipped", len(inv.SkippedLines)).
		Msg("invoice processed")

	s.archive(ctx, project.ID, filename, data, inv)
	if inv.HasWarnings() && s.deps.Notifier != nil {
		notice := port.InvoiceNotice{ProjectName: project.Name, Source: source, Filename: filename, Invoice: inv}
		if err := s.deps.Notifier.NotifyInvoiceWarnings(ctx, notice); err != nil {
			s.log.Warn().Err(err).Str("invoice", inv.InvoiceNumber).Msg("failed to notify operator")
		}
	}
	return inv, nil
}

func (s *ingestionService) archive(ctx context.Context, projectID uuid.UUID, filename string, data []byte, inv *domain.ParsedInvoice) {
	if s.deps.Archive == nil {
		return
	}
	number := inv.InvoiceNumber
	if number == "" {
		number = "unknown"
	}
	key := path.Join(s.cfg.ArchivePrefix, projectID.String(), fmt.Sprintf("%s-%s.pdf", number, uuid.New()))
	_, err := s.deps.Archive.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.ArchiveBucket,
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: domain.AllowedFileTypes[domain.FileTypePDF],
		Size:        int64(len(data)),
	})
	if err != nil {
		s.log.Warn().Err(fmt.Errorf("%w: %v", domain.ErrArchiveFailed, err)).
			Str("filename", filename).
			Msg("failed to archive invoice document")
	}
}

func (s *ingestionService) read(r io.Reader) ([]byte, error) {
	if s.cfg.MaxFileBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxFileBytes {
		return nil, domain.ErrFileTooLarge
	}
	return data, nil
}

func isPDF(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	_, ok := domain.AllowedExtensions[ext]
	return ok
}
