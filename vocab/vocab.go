// Package vocab provides the CESSDA controlled vocabularies that DDI field
// values are compared against.
package vocab

import (
	"sort"

	"github.com/pkg/errors"
)

// Category identifies one controlled vocabulary.
type Category string

const (
	AccessRights        Category = "access-rights"
	PIDSchemes          Category = "pid-schemes"
	TopicClassification Category = "topic-classification"
	AnalysisUnit        Category = "analysis-unit"
	TimeMethod          Category = "time-method"
	SamplingProcedure   Category = "sampling-procedure"
	CollectionMode      Category = "collection-mode"
)

// Categories lists every known category.
var Categories = []Category{
	AccessRights,
	PIDSchemes,
	TopicClassification,
	AnalysisUnit,
	TimeMethod,
	SamplingProcedure,
	CollectionMode,
}

// ErrUnknownCategory is returned for categories without a vocabulary URL.
var ErrUnknownCategory = errors.New("unknown vocabulary category")

const vocabulariesBase = "https://vocabularies.cessda.eu/v2/vocabularies/"

// DefaultURLs are the CESSDA Vocabulary Service URLs of each category.
var DefaultURLs = map[Category]string{
	AccessRights:        vocabulariesBase + "CessdaAccessRights/1.0.0?languageVersion=en-1.0.0&format=json",
	PIDSchemes:          vocabulariesBase + "CessdaPersistentIdentifierTypes/1.0.0?languageVersion=en-1.0.0&format=json",
	TopicClassification: vocabulariesBase + "TopicClassification/4.0.0?languageVersion=en-4.0.0&format=json",
	AnalysisUnit:        vocabulariesBase + "AnalysisUnit/1.2.0?languageVersion=en-1.2.0&format=json",
	TimeMethod:          vocabulariesBase + "TimeMethod/1.2.1?languageVersion=en-1.2.1&format=json",
	SamplingProcedure:   vocabulariesBase + "SamplingProcedure/2.0.0?languageVersion=en-2.0.0&format=json",
	CollectionMode:      vocabulariesBase + "ModeOfCollection/4.0.0?languageVersion=en-4.0.0&format=json",
}

// Fallback returns the terms used when the vocabulary cannot be fetched or
// is empty. Only access rights and PID schemes have built-in terms.
func (c Category) Fallback() TermSet {
	switch c {
	case AccessRights:
		return NewTermSet("Open", "Restricted")
	case PIDSchemes:
		return NewTermSet("DOI", "Handle", "URN", "ARK")
	default:
		return TermSet{}
	}
}

// TermSet is an immutable set of accepted values.
type TermSet struct {
	m map[string]struct{}
}

func NewTermSet(terms ...string) TermSet {
	m := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		m[t] = struct{}{}
	}
	return TermSet{m: m}
}

// Contains reports whether term is an exact member of the set.
func (s TermSet) Contains(term string) bool {
	_, ok := s.m[term]
	return ok
}

func (s TermSet) Len() int {
	return len(s.m)
}

// Terms returns the members in lexical order.
func (s TermSet) Terms() []string {
	terms := make([]string, 0, len(s.m))
	for t := range s.m {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
