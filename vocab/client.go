package vocab

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/JiscSD/cessda-fair-checker/internal/fetch"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/xeipuuv/gojsonschema"
)

// Source retrieves the current terms of a vocabulary.
type Source interface {
	Terms(ctx context.Context, category Category) (TermSet, error)
}

// responseSchema describes the parts of a Vocabulary Service response that
// we read. Concept titles must be strings when present. Anything else in the
// document is ignored.
const responseSchema = `{
	"type": "object",
	"properties": {
		"versions": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"concepts": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"title": {"type": ["string", "null"]}
							}
						}
					}
				}
			}
		}
	}
}`

var responseSchemaLoader = gojsonschema.NewStringLoader(responseSchema)

type vocabularyResponse struct {
	Versions []struct {
		Concepts []struct {
			Title interface{} `json:"title"`
		} `json:"concepts"`
	} `json:"versions"`
}

// Client reads vocabularies from the CESSDA Vocabulary Service.
type Client struct {
	logger logrus.FieldLogger
	http   *fetch.Client
	urls   map[Category]string
}

var _ Source = (*Client)(nil)

// NewClient returns a Client. urls overrides DefaultURLs per category.
func NewClient(logger logrus.FieldLogger, httpClient *fetch.Client, urls map[Category]string) *Client {
	merged := make(map[Category]string, len(DefaultURLs))
	for c, u := range DefaultURLs {
		merged[c] = u
	}
	for c, u := range urls {
		if u != "" {
			merged[c] = u
		}
	}
	return &Client{logger: logger, http: httpClient, urls: merged}
}

// URL returns the vocabulary URL of the given category.
func (c *Client) URL(category Category) (string, bool) {
	u, ok := c.urls[category]
	return u, ok
}

// Terms returns the trimmed, non-blank concept titles of the first version
// listed in the vocabulary.
func (c *Client) Terms(ctx context.Context, category Category) (TermSet, error) {
	u, ok := c.URL(category)
	if !ok {
		return TermSet{}, errors.Wrap(ErrUnknownCategory, string(category))
	}
	blob, err := c.http.Get(ctx, u, fetch.MediaTypeJSON)
	if err != nil {
		return TermSet{}, errors.Wrapf(err, "%s vocabulary request failed", category)
	}
	terms, err := parseTerms(blob)
	if err != nil {
		return TermSet{}, errors.Wrapf(err, "%s vocabulary response is invalid", category)
	}
	c.logger.WithFields(logrus.Fields{"category": category, "terms": len(terms)}).Debug("Vocabulary fetched")
	return NewTermSet(terms...), nil
}

func parseTerms(blob []byte) ([]string, error) {
	res, err := gojsonschema.Validate(responseSchemaLoader, gojsonschema.NewStringLoader(string(blob)))
	if err != nil {
		return nil, errors.Wrap(err, "error decoding the response payload")
	}
	if !res.Valid() {
		issues := make([]string, 0, len(res.Errors()))
		for _, issue := range res.Errors() {
			issues = append(issues, issue.String())
		}
		return nil, errors.Errorf("unexpected document shape: %s", strings.Join(issues, "; "))
	}

	var payload vocabularyResponse
	if err := json.Unmarshal(blob, &payload); err != nil {
		return nil, errors.Wrap(err, "error decoding the response payload")
	}
	if len(payload.Versions) == 0 {
		return nil, nil
	}
	var terms []string
	for _, concept := range payload.Versions[0].Concepts {
		title := strings.TrimSpace(cast.ToString(concept.Title))
		if title == "" {
			continue
		}
		terms = append(terms, title)
	}
	return terms, nil
}
