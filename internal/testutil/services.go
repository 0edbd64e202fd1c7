package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/JiscSD/cessda-fair-checker/vocab"
)

// Services fakes the OAI-PMH endpoint, the Vocabulary Service and the ELSST
// topics API on a single HTTP server.
type Services struct {
	URL string

	t  *testing.T
	ts *httptest.Server

	mu           sync.Mutex
	records      map[string]string
	vocabularies map[vocab.Category]string
	labels       map[string]map[string]string
	failing      map[string]int
	hits         map[string]int
}

func NewServices(t *testing.T) *Services {
	s := &Services{
		t:            t,
		records:      map[string]string{},
		vocabularies: map[vocab.Category]string{},
		labels:       map[string]map[string]string{},
		failing:      map[string]int{},
		hits:         map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oai", s.handleOAI)
	mux.HandleFunc("/vocabularies/", s.handleVocabulary)
	mux.HandleFunc("/topics", s.handleTopics)
	s.ts = httptest.NewServer(mux)
	s.URL = s.ts.URL
	t.Cleanup(s.ts.Close)

	return s
}

func (s *Services) OAIEndpoint() string    { return s.URL + "/oai" }
func (s *Services) TopicsEndpoint() string { return s.URL + "/topics" }

// VocabularyURLs points every category to the fake Vocabulary Service.
func (s *Services) VocabularyURLs() map[vocab.Category]string {
	urls := map[vocab.Category]string{}
	for _, c := range vocab.Categories {
		urls[c] = fmt.Sprintf("%s/vocabularies/%s?format=json", s.URL, c)
	}
	return urls
}

// AddRecord serves body for GetRecord requests of identifier.
func (s *Services) AddRecord(identifier, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[identifier] = body
}

// SetVocabulary serves body for the category.
func (s *Services) SetVocabulary(c vocab.Category, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocabularies[c] = body
}

// AddLabel adds an ELSST label returned when searching keyword.
func (s *Services) AddLabel(keyword, lang, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.labels[keyword] == nil {
		s.labels[keyword] = map[string]string{}
	}
	s.labels[keyword][lang] = label
}

// Fail makes requests whose path is p answer with status.
func (s *Services) Fail(p string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[p] = status
}

// Hits returns the number of requests received for path p.
func (s *Services) Hits(p string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[p]
}

func (s *Services) track(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[r.URL.Path]++
	if status, ok := s.failing[r.URL.Path]; ok {
		w.WriteHeader(status)
		return false
	}
	return true
}

func (s *Services) handleOAI(w http.ResponseWriter, r *http.Request) {
	if !s.track(w, r) {
		return
	}
	q := r.URL.Query()
	if q.Get("verb") != "GetRecord" || q.Get("metadataPrefix") != "oai_ddi25" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	body, ok := s.records[q.Get("identifier")]
	s.mu.Unlock()
	if !ok {
		body = `<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/"><error code="idDoesNotExist">No matching identifier</error></OAI-PMH>`
	}
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprint(w, body)
}

func (s *Services) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	if !s.track(w, r) {
		return
	}
	c := vocab.Category(strings.TrimPrefix(r.URL.Path, "/vocabularies/"))
	s.mu.Lock()
	body, ok := s.vocabularies[c]
	s.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func (s *Services) handleTopics(w http.ResponseWriter, r *http.Request) {
	if !s.track(w, r) {
		return
	}
	const (
		labelsFilter   = "cf.search.labels:"
		languageFilter = ",cf.search.language:"
	)
	filter := r.URL.Query().Get("filter")
	i := strings.LastIndex(filter, languageFilter)
	if !strings.HasPrefix(filter, labelsFilter) || i < 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	keyword := filter[len(labelsFilter):i]

	s.mu.Lock()
	labels := s.labels[keyword]
	s.mu.Unlock()

	results := "[]"
	if len(labels) > 0 {
		pairs := make([]string, 0, len(labels))
		for lang, label := range labels {
			pairs = append(pairs, fmt.Sprintf("%q: %q", lang, label))
		}
		results = `[{"id": "topic", "labels": {` + strings.Join(pairs, ", ") + `}}]`
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"meta": {}, "results": %s}`, results)
}
