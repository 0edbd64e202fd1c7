package checks

import (
	"context"

	"github.com/JiscSD/cessda-fair-checker/ddi"
	"github.com/JiscSD/cessda-fair-checker/elsst"
	"github.com/JiscSD/cessda-fair-checker/record"
	"github.com/JiscSD/cessda-fair-checker/vocab"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// MetadataSource retrieves the DDI codebook of a record.
type MetadataSource interface {
	GetCodebook(ctx context.Context, identifier string) (*ddi.Codebook, error)
}

// TermSource returns the accepted terms of a vocabulary.
type TermSource interface {
	Get(ctx context.Context, category vocab.Category) vocab.TermSet
}

// LabelSource searches ELSST labels for a keyword.
type LabelSource interface {
	Labels(ctx context.Context, keyword, lang string) ([]elsst.Label, error)
}

type evaluator func(ctx context.Context, c *Checker, ref *record.Reference, cb *ddi.Codebook, logger logrus.FieldLogger) Result

const defaultKeywordParallelism = 4

// Checker runs checks against catalogue records. It is safe for concurrent
// use; the TermSource is the only state shared between invocations.
type Checker struct {
	logger   logrus.FieldLogger
	metadata MetadataSource
	terms    TermSource
	labels   LabelSource

	keywordParallelism int
	results            *prometheus.CounterVec
}

type Option func(*Checker)

// WithKeywordParallelism bounds the number of concurrent ELSST queries made
// by one invocation.
func WithKeywordParallelism(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.keywordParallelism = n
		}
	}
}

// WithResultCounter counts results by check and outcome. The vector must
// have the labels "check" and "result".
func WithResultCounter(results *prometheus.CounterVec) Option {
	return func(c *Checker) {
		c.results = results
	}
}

// NewResultCounter returns the counter expected by WithResultCounter.
func NewResultCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cessda_fair_checker",
		Name:      "results_total",
		Help:      "The total number of check results, by check and outcome.",
	}, []string{"check", "result"})
}

func New(logger logrus.FieldLogger, metadata MetadataSource, terms TermSource, labels LabelSource, opts ...Option) *Checker {
	c := &Checker{
		logger:             logger,
		metadata:           metadata,
		terms:              terms,
		labels:             labels,
		keywordParallelism: defaultKeywordParallelism,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the named check against the record referenced by rawURL.
func (c *Checker) Run(ctx context.Context, name, rawURL string) Result {
	res, _ := c.RunWithID(ctx, name, rawURL)
	return res
}

// RunWithID is like Run but also returns the invocation identifier attached
// to the log entries of this run.
func (c *Checker) RunWithID(ctx context.Context, name, rawURL string) (Result, string) {
	invocation := uuid.New().String()
	logger := c.logger.WithFields(logrus.Fields{
		"check":      name,
		"url":        rawURL,
		"invocation": invocation,
	})

	check, err := Lookup(name)
	if err != nil {
		logger.WithError(err).Error("Cannot run check")
		return Indeterminate, invocation
	}

	res := c.run(ctx, check, rawURL, logger)
	logger.WithField("result", res).Info("Check completed")
	if c.results != nil {
		c.results.WithLabelValues(check.Name, res.String()).Inc()
	}
	return res, invocation
}

func (c *Checker) run(ctx context.Context, check Check, rawURL string, logger logrus.FieldLogger) Result {
	ref, err := record.Parse(rawURL)
	if err != nil {
		logger.WithError(err).Error("Invalid record reference")
		return Indeterminate
	}
	logger = logger.WithField("record", ref.ID)

	cb, err := c.metadata.GetCodebook(ctx, ref.ID)
	if err != nil {
		logger.WithError(err).Errorf("Couldn't check %s", check.Name)
		return Indeterminate
	}

	return check.evaluate(ctx, c, ref, cb, logger)
}

// AccessRights checks whether the record contains an approved access rights
// term.
func (c *Checker) AccessRights(ctx context.Context, rawURL string) Result {
	return c.Run(ctx, AccessRightsCheck, rawURL)
}

// PID checks whether the record has an IDNo whose agency is an approved PID
// schema.
func (c *Checker) PID(ctx context.Context, rawURL string) Result {
	return c.Run(ctx, PIDCheck, rawURL)
}

// ELSSTKeywords checks whether the record has at least one keyword declared
// against ELSST whose text matches an ELSST label in the requested language.
func (c *Checker) ELSSTKeywords(ctx context.Context, rawURL string) Result {
	return c.Run(ctx, ELSSTKeywordsCheck, rawURL)
}

// RecommendedVocabularies checks whether the record uses an approved
// Analysis Unit, Time Method or Mode of Collection term.
func (c *Checker) RecommendedVocabularies(ctx context.Context, rawURL string) Result {
	return c.Run(ctx, RecommendedVocabulariesCheck, rawURL)
}

// SamplingProcedure checks whether the record uses an approved Sampling
// Procedure term.
func (c *Checker) SamplingProcedure(ctx context.Context, rawURL string) Result {
	return c.Run(ctx, SamplingProcedureCheck, rawURL)
}

// TopicClassification checks whether the record uses an approved CESSDA
// Topic Classification term.
func (c *Checker) TopicClassification(ctx context.Context, rawURL string) Result {
	return c.Run(ctx, TopicClassificationCheck, rawURL)
}
