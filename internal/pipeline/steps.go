package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/model"
)

// ErrNothingLoaded is returned by ScanStep when the job has no documents.
var ErrNothingLoaded = errors.New("no documents were loaded")

// Loader produces the documents for a target. A single page loader returns
// one document; a crawler returns one per visited page.
type Loader interface {
	Load(ctx context.Context, target string) ([]*dom.Document, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, target string) ([]*dom.Document, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, target string) ([]*dom.Document, error) {
	return f(ctx, target)
}

// Scanner scans one document.
type Scanner interface {
	Scan(ctx context.Context, doc *dom.Document) (*model.ScanResult, error)
}

// Store persists scan results.
type Store interface {
	Save(ctx context.Context, result *model.ScanResult) error
}

// LoadStep fills Job.Documents.
type LoadStep struct {
	loader Loader
}

// NewLoadStep creates a LoadStep.
func NewLoadStep(loader Loader) *LoadStep {
	return &LoadStep{loader: loader}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do loads the target. Failures are PlatformInjectionErrors.
func (s *LoadStep) Do(ctx context.Context, job *Job) error {
	docs, err := s.loader.Load(ctx, job.Target)
	if err != nil {
		var pie *model.PlatformInjectionError
		if errors.As(err, &pie) {
			return err
		}
		return model.NewPlatformInjectionError(job.Target, err)
	}
	job.Documents = append(job.Documents, docs...)
	return nil
}

// ScanStep scans every loaded document.
type ScanStep struct {
	scanner Scanner
}

// NewScanStep creates a ScanStep.
func NewScanStep(scanner Scanner) *ScanStep {
	return &ScanStep{scanner: scanner}
}

// Name returns the step name.
func (s *ScanStep) Name() string {
	return "scan"
}

// Do appends one result per document. The first scan failure stops the step.
func (s *ScanStep) Do(ctx context.Context, job *Job) error {
	if len(job.Documents) == 0 {
		return model.NewPlatformInjectionError(job.Target, ErrNothingLoaded)
	}
	for _, doc := range job.Documents {
		result, err := s.scanner.Scan(ctx, doc)
		if err != nil {
			return err
		}
		job.Results = append(job.Results, result)
	}
	return nil
}

// SaveStep writes every result to the history store.
type SaveStep struct {
	store Store
}

// NewSaveStep creates a SaveStep.
func NewSaveStep(store Store) *SaveStep {
	return &SaveStep{store: store}
}

// Name returns the step name.
func (s *SaveStep) Name() string {
	return "save"
}

// Do saves the results.
func (s *SaveStep) Do(ctx context.Context, job *Job) error {
	for _, result := range job.Results {
		if err := s.store.Save(ctx, result); err != nil {
			return fmt.Errorf("failed to save scan of %s: %w", result.PageURL, err)
		}
	}
	return nil
}
