package checks

import (
	"context"
	"strings"

	"github.com/JiscSD/cessda-fair-checker/ddi"
	"github.com/JiscSD/cessda-fair-checker/elsst"
	"github.com/JiscSD/cessda-fair-checker/record"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// ELSSTVocabName is the vocab attribute of ELSST keywords.
	ELSSTVocabName = "ELSST"

	// ELSSTURISubstring must appear in the vocabURI attribute of ELSST
	// keywords.
	ELSSTURISubstring = "elsst.cessda.eu"
)

// ErrNoLabels is returned when none of the ELSST queries succeeded.
var ErrNoLabels = errors.New("every ELSST query failed")

// KeywordCandidate is a keyword element declared against ELSST. Only
// candidates are sent to the ELSST API.
type KeywordCandidate struct {
	Text        string
	HasVocab    bool
	HasVocabURI bool
}

// ConfirmedKeyword is a candidate whose text matches an ELSST label.
type ConfirmedKeyword struct {
	KeywordCandidate
	Label elsst.Label
}

// KeywordCandidates returns the keywords with vocab="ELSST", a vocabURI
// containing ELSSTURISubstring and non-empty text, in document order.
func KeywordCandidates(fields []ddi.Field) []KeywordCandidate {
	var candidates []KeywordCandidate
	for _, f := range fields {
		text := f.Text()
		if text == "" {
			continue
		}
		vocabAttr, _ := f.Attr("vocab")
		vocabURI, _ := f.Attr("vocabURI")
		kc := KeywordCandidate{
			Text:        text,
			HasVocab:    vocabAttr == ELSSTVocabName,
			HasVocabURI: strings.Contains(vocabURI, ELSSTURISubstring),
		}
		if kc.HasVocab && kc.HasVocabURI {
			candidates = append(candidates, kc)
		}
	}
	return candidates
}

// labelSet holds "<lang>:<LABEL>" keys, labels normalized by normalizeLabel.
type labelSet map[string]struct{}

func labelKey(lang, text string) string {
	return lang + ":" + normalizeLabel(text)
}

func normalizeLabel(text string) string {
	return strings.ToUpper(strings.TrimSpace(strings.Replace(text, `"`, "", -1)))
}

// confirm returns the first candidate whose upper-cased text equals an ELSST
// label in lang.
func confirm(candidates []KeywordCandidate, labels labelSet, lang string) (ConfirmedKeyword, bool) {
	for _, kc := range candidates {
		key := lang + ":" + strings.ToUpper(kc.Text)
		if _, ok := labels[key]; ok {
			return ConfirmedKeyword{
				KeywordCandidate: kc,
				Label:            elsst.Label{Lang: lang, Text: kc.Text},
			}, true
		}
	}
	return ConfirmedKeyword{}, false
}

// lookupLabels queries the ELSST API once per distinct keyword. Queries run
// concurrently and each one keeps its own result until all have returned. A
// failed query contributes no labels; ErrNoLabels is returned when all of
// them fail.
func (c *Checker) lookupLabels(ctx context.Context, keywords []string, lang string, logger logrus.FieldLogger) (labelSet, error) {
	type outcome struct {
		labels []elsst.Label
		err    error
	}
	outcomes := make([]outcome, len(keywords))

	var g errgroup.Group
	g.SetLimit(c.keywordParallelism)
	for i, kw := range keywords {
		i, kw := i, kw
		g.Go(func() error {
			labels, err := c.labels.Labels(ctx, kw, lang)
			outcomes[i] = outcome{labels: labels, err: err}
			return nil
		})
	}
	_ = g.Wait()

	set := labelSet{}
	failed := 0
	for i, o := range outcomes {
		if o.err != nil {
			failed++
			logger.WithError(o.err).WithField("keyword", keywords[i]).Warn("ELSST query failed")
			continue
		}
		for _, l := range o.labels {
			set[labelKey(l.Lang, l.Text)] = struct{}{}
		}
	}
	if len(keywords) > 0 && failed == len(keywords) {
		return nil, ErrNoLabels
	}
	logger.WithField("labels", len(set)).Debug("ELSST labels collected")
	return set, nil
}

func distinctTexts(candidates []KeywordCandidate) []string {
	seen := make(map[string]struct{}, len(candidates))
	var texts []string
	for _, kc := range candidates {
		if _, ok := seen[kc.Text]; ok {
			continue
		}
		seen[kc.Text] = struct{}{}
		texts = append(texts, kc.Text)
	}
	return texts
}

func elsstKeywords(ctx context.Context, c *Checker, ref *record.Reference, cb *ddi.Codebook, logger logrus.FieldLogger) Result {
	fields, err := cb.Extract(ddi.KeywordPath)
	if err != nil {
		logger.WithError(err).Error("Error extracting keywords")
		return Indeterminate
	}
	if len(fields) == 0 {
		logger.Info("No keywords found")
		return Fail
	}

	candidates := KeywordCandidates(fields)
	if len(candidates) == 0 {
		logger.Infof("No keywords found with both vocab=%q and vocabURI containing %q", ELSSTVocabName, ELSSTURISubstring)
		return Fail
	}
	logger.Infof("Checking %d candidate keyword(s) via ELSST API", len(candidates))

	if ref.Lang == "" {
		logger.Info("No language code available for ELSST API validation")
		return Indeterminate
	}
	logger = logger.WithField("lang", ref.Lang)

	labels, err := c.lookupLabels(ctx, distinctTexts(candidates), ref.Lang, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to fetch ELSST keywords")
		return Indeterminate
	}

	if kw, ok := confirm(candidates, labels, ref.Lang); ok {
		logger.WithField("keyword", kw.Text).Info("Keyword meets all conditions (vocab, vocabURI and API match)")
		return Pass
	}
	logger.Info("No keywords meet all conditions")
	return Fail
}
