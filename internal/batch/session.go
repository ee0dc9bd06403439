package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
	"github.com/insightdelivered/cfe-receipt-reader/internal/parser"
)

// Batch size bounds. A comparison needs at least two receipts to say
// anything, and the sequential pipeline is capped to keep a single request
// bounded.
const (
	MinBatchSize = 2
	MaxBatchSize = 20
)

// errorTitleholder is the display value for a document that could not be
// read at all.
const errorTitleholder = "Error al leer"

// Input is one queued document: its display name and a fetch function that
// yields the document text when the session gets to it. Acquisition is
// deferred so queue validation happens before any document is opened.
type Input struct {
	Name    string
	Acquire func(ctx context.Context) (models.DocumentText, error)
}

// Status is the per-document pipeline state reported to the progress
// callback.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// ProgressFunc observes each document entering and leaving the pipeline.
type ProgressFunc func(index, total int, name string, status Status)

// Session processes a validated queue of documents strictly in order and
// collects one Receipt per input. A session is single-use.
type Session struct {
	extractor *parser.Extractor
	inputs    []Input
	log       zerolog.Logger

	// Progress, when set, reports per-document pipeline position.
	Progress ProgressFunc
}

// NewSession validates the queue and returns a ready session. The queue
// must hold MinBatchSize to MaxBatchSize inputs and names must be unique;
// a duplicate name would make two report rows indistinguishable.
func NewSession(ext *parser.Extractor, inputs []Input, log zerolog.Logger) (*Session, error) {
	if ext == nil {
		ext = parser.NewExtractor(nil)
	}
	if len(inputs) < MinBatchSize {
		return nil, fmt.Errorf("batch needs at least %d documents, got %d", MinBatchSize, len(inputs))
	}
	if len(inputs) > MaxBatchSize {
		return nil, fmt.Errorf("batch is limited to %d documents, got %d", MaxBatchSize, len(inputs))
	}
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if seen[in.Name] {
			return nil, fmt.Errorf("duplicate document name %q in batch", in.Name)
		}
		seen[in.Name] = true
	}
	return &Session{extractor: ext, inputs: inputs, log: log}, nil
}

// Run processes every input in queue order and returns one receipt per
// input, index-aligned with the queue. A document that cannot be acquired
// yields a placeholder receipt instead of failing the batch; only context
// cancellation aborts the run.
func (s *Session) Run(ctx context.Context) ([]models.Receipt, error) {
	receipts := make([]models.Receipt, 0, len(s.inputs))
	for i, in := range s.inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.progress(i, in.Name, StatusProcessing)

		doc, err := in.Acquire(ctx)
		if err != nil {
			s.log.Warn().Err(err).Str("document", in.Name).Msg("document could not be read, recording placeholder")
			receipts = append(receipts, placeholderReceipt(in.Name, err))
			s.progress(i, in.Name, StatusError)
			continue
		}

		r := s.extractor.ReadReceipt(doc)
		if r.Titleholder == s.extractor.Locale.Sentinel {
			// In a comparison the row still needs a distinguishing label,
			// so fall back to the file name.
			r.Titleholder = strings.TrimSuffix(in.Name, filepath.Ext(in.Name))
		}
		s.log.Info().
			Str("document", in.Name).
			Int("kwh", r.KWh).
			Str("total", r.Total.String()).
			Msg("document processed")
		receipts = append(receipts, r)
		s.progress(i, in.Name, StatusDone)
	}
	return receipts, nil
}

func (s *Session) progress(index int, name string, status Status) {
	if s.Progress != nil {
		s.Progress(index, len(s.inputs), name, status)
	}
}

// placeholderReceipt keeps the failed document visible in the report with
// every field neutralized.
func placeholderReceipt(name string, err error) models.Receipt {
	return models.Receipt{
		SourceName:  name,
		Titleholder: errorTitleholder,
		ServiceID:   "-",
		PeriodText:  "-",
		DueDate:     "-",
		Tariff:      models.TierUnassigned,
		Err:         err.Error(),
	}
}
