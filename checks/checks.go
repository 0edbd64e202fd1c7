// Package checks implements the FAIR compliance checks run against CESSDA
// Data Catalogue records.
//
// Every check follows the same flow: parse the record reference, fetch the
// DDI codebook and run a matcher over it. Any error before the matcher runs
// yields Indeterminate.
package checks

import (
	"github.com/JiscSD/cessda-fair-checker/ddi"
	"github.com/JiscSD/cessda-fair-checker/vocab"

	"github.com/pkg/errors"
)

// Check names, as accepted on the command line.
const (
	AccessRightsCheck            = "access-rights"
	PIDCheck                     = "pid"
	ELSSTKeywordsCheck           = "elsst-keywords"
	RecommendedVocabulariesCheck = "ddi-vocabs"
	SamplingProcedureCheck       = "ddi-sampleproc"
	TopicClassificationCheck     = "topic-class"
)

// TopicClassVocabName is the vocab attribute a topcClas element must carry.
const TopicClassVocabName = "CESSDA Topic Classification"

// ErrUnknownCheck is returned by Lookup for unregistered names.
var ErrUnknownCheck = errors.New("unknown check")

// Descriptor binds a DDI field to the vocabulary its values must belong to.
type Descriptor struct {
	Label    string
	Path     ddi.Path
	Category vocab.Category

	// Qualifies, when set, excludes elements before comparison.
	Qualifies func(ddi.Field) bool

	// Value, when set, reads the compared value. The trimmed element text is
	// used otherwise.
	Value func(ddi.Field) (string, bool)
}

func (d Descriptor) value(f ddi.Field) (string, bool) {
	if d.Value != nil {
		return d.Value(f)
	}
	return f.Text(), true
}

var (
	AccessRightsField = Descriptor{
		Label:    "Access Rights",
		Path:     ddi.AccessRightsPath,
		Category: vocab.AccessRights,
	}
	PIDField = Descriptor{
		Label:    "PID schema",
		Path:     ddi.PIDPath,
		Category: vocab.PIDSchemes,
		Value: func(f ddi.Field) (string, bool) {
			return f.Attr("agency")
		},
	}
	TopicClassificationField = Descriptor{
		Label:    "Topic Classification",
		Path:     ddi.TopicClassPath,
		Category: vocab.TopicClassification,
		Qualifies: func(f ddi.Field) bool {
			v, _ := f.Attr("vocab")
			return v == TopicClassVocabName
		},
	}
	AnalysisUnitField = Descriptor{
		Label:    "Analysis Unit",
		Path:     ddi.AnalysisUnitPath,
		Category: vocab.AnalysisUnit,
	}
	TimeMethodField = Descriptor{
		Label:    "Time Method",
		Path:     ddi.TimeMethodPath,
		Category: vocab.TimeMethod,
	}
	SamplingProcedureField = Descriptor{
		Label:    "Sampling Procedure",
		Path:     ddi.SamplingProcedurePath,
		Category: vocab.SamplingProcedure,
	}
	CollectionModeField = Descriptor{
		Label:    "Mode of Collection",
		Path:     ddi.CollectionModePath,
		Category: vocab.CollectionMode,
	}
)

// Check is a named compliance check.
type Check struct {
	Name  string
	Short string

	evaluate evaluator
}

var registry = []Check{
	{
		Name:     AccessRightsCheck,
		Short:    "Check that the record declares an approved access rights term",
		evaluate: membership(AccessRightsField),
	},
	{
		Name:     PIDCheck,
		Short:    "Check that the record has an identifier from an approved PID schema",
		evaluate: membership(PIDField),
	},
	{
		Name:     ELSSTKeywordsCheck,
		Short:    "Check that the record has keywords from the ELSST thesaurus",
		evaluate: elsstKeywords,
	},
	{
		Name:     RecommendedVocabulariesCheck,
		Short:    "Check that the record uses a recommended DDI controlled vocabulary",
		evaluate: anyOf(AnalysisUnitField, TimeMethodField, CollectionModeField),
	},
	{
		Name:     SamplingProcedureCheck,
		Short:    "Check that the record uses DDI Sampling Procedure terms",
		evaluate: membership(SamplingProcedureField),
	},
	{
		Name:     TopicClassificationCheck,
		Short:    "Check that the record uses CESSDA Topic Classification terms",
		evaluate: membership(TopicClassificationField),
	},
}

// All returns the registered checks in a stable order.
func All() []Check {
	all := make([]Check, len(registry))
	copy(all, registry)
	return all
}

// Lookup returns the check registered under name.
func Lookup(name string) (Check, error) {
	for _, c := range registry {
		if c.Name == name {
			return c, nil
		}
	}
	return Check{}, errors.Wrap(ErrUnknownCheck, name)
}
