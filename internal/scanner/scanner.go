package scanner

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/model"
)

// Default thresholds.
const (
	// DefaultDepthThreshold is the depth below body at which an element
	// counts as deeply nested.
	DefaultDepthThreshold = 10

	// DefaultDeepElementLimit is how many deeply nested elements are
	// tolerated before the deep-nesting issue fires.
	DefaultDeepElementLimit = 50

	// DefaultOverflowCap bounds the selectors reported for overflow.
	DefaultOverflowCap = 20
)

// ErrNoDocument is wrapped into a PlatformInjectionError when Scan is given
// nothing to inspect.
var ErrNoDocument = errors.New("no document to scan")

// Options configures the scanner.
type Options struct {
	// DepthThreshold is the minimum depth below body that counts as deep.
	DepthThreshold int

	// DeepElementLimit is the number of deep elements allowed before the
	// deep-nesting issue fires. The check fires when the count exceeds it.
	DeepElementLimit int

	// OverflowCap is the maximum number of overflow selectors reported.
	OverflowCap int

	// Disabled lists checks that are skipped.
	Disabled []model.IssueType
}

// DefaultOptions returns the standard thresholds with every check enabled.
func DefaultOptions() Options {
	return Options{
		DepthThreshold:   DefaultDepthThreshold,
		DeepElementLimit: DefaultDeepElementLimit,
		OverflowCap:      DefaultOverflowCap,
	}
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithOptions replaces the thresholds and disabled checks.
func WithOptions(opts Options) Option {
	return func(s *Scanner) {
		s.options = opts
	}
}

// WithDisabledChecks skips the given checks.
func WithDisabledChecks(types ...model.IssueType) Option {
	return func(s *Scanner) {
		s.options.Disabled = append(s.options.Disabled, types...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for ScannedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

// Scanner runs the registered checks against documents.
// A Scanner holds no per-page state and may be shared between goroutines.
type Scanner struct {
	checks  []Check
	options Options
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Scanner with the built-in checks registered in their fixed
// order.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		options: DefaultOptions(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Register(NewEmptyButtonCheck())
	s.Register(NewMissingAltCheck())
	s.Register(NewDeepNestingCheck(s.options.DepthThreshold, s.options.DeepElementLimit))
	s.Register(NewOverflowCheck(s.options.OverflowCap))
	return s
}

// Register appends a check. Disabled checks are dropped here.
func (s *Scanner) Register(check Check) {
	if slices.Contains(s.options.Disabled, check.Type()) {
		s.logger.Debug("check disabled", "check", check.Type())
		return
	}
	s.checks = append(s.checks, check)
}

// Checks returns the issue types of the active checks in run order.
func (s *Scanner) Checks() []model.IssueType {
	types := make([]model.IssueType, 0, len(s.checks))
	for _, c := range s.checks {
		types = append(types, c.Type())
	}
	return types
}

// Scan inspects doc and returns the issues found.
//
// A nil document fails with a *model.PlatformInjectionError. A check that
// returns an error is logged and skipped; the remaining checks still run.
func (s *Scanner) Scan(ctx context.Context, doc *dom.Document) (*model.ScanResult, error) {
	if doc == nil {
		return nil, model.NewPlatformInjectionError("", ErrNoDocument)
	}

	issues := make([]model.Issue, 0, len(s.checks))
	for _, check := range s.checks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		issue, err := check.Run(ctx, doc)
		if err != nil {
			s.logger.Warn("check failed", "check", check.Type(), "url", doc.URL, "error", err)
			continue
		}
		if issue == nil {
			continue
		}
		s.logger.Debug("check fired", "check", check.Type(), "count", issue.Count)
		issues = append(issues, *issue)
	}

	if len(issues) == 0 {
		issues = append(issues, GeneralIssue())
	}

	return &model.ScanResult{
		ID:        uuid.NewString(),
		PageURL:   doc.URL,
		TechHint:  DetectTech(doc),
		Issues:    issues,
		ScannedAt: s.now(),
		Backend:   doc.Backend,
	}, nil
}

// GeneralIssue is the placeholder reported when no check fires.
func GeneralIssue() model.Issue {
	return model.NewIssue(
		model.IssueGeneral,
		"General UI Polish",
		"No critical bugs found. Suggest overall UI polish and optimization.",
		"No critical bugs found. Suggest overall UI polish.",
		0,
		nil,
	)
}

// DetectTech reports Tailwind CSS when any element carries a class containing
// "bg-" or "text-", and Standard CSS otherwise.
func DetectTech(doc *dom.Document) model.TechHint {
	for _, n := range doc.Elements() {
		class := dom.Attr(n, "class")
		if strings.Contains(class, "bg-") || strings.Contains(class, "text-") {
			return model.TechTailwind
		}
	}
	return model.TechStandard
}
