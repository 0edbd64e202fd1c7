// Package elsst queries the CESSDA SKG-IF topics API for ELSST thesaurus
// labels.
package elsst

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/JiscSD/cessda-fair-checker/internal/fetch"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultEndpoint is the topics API base URL.
const DefaultEndpoint = "https://skg-if-openapi.cessda.eu/api/topics"

// Label is a preferred label of an ELSST concept in one language.
type Label struct {
	Lang string
	Text string
}

type topicsResponse struct {
	Results []struct {
		Labels json.RawMessage `json:"labels"`
	} `json:"results"`
}

// Client performs topic searches.
type Client struct {
	logger   logrus.FieldLogger
	endpoint string
	http     *fetch.Client
}

func New(logger logrus.FieldLogger, endpoint string, httpClient *fetch.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{logger: logger, endpoint: endpoint, http: httpClient}
}

// SearchURL returns the topics query for keyword in the given language.
func (c *Client) SearchURL(keyword, lang string) string {
	return c.endpoint +
		"?filter=cf.search.labels:" + url.QueryEscape(keyword) +
		",cf.search.language:" + url.QueryEscape(lang)
}

// Labels returns every label, in every language, of the topics matching
// keyword. Results without a labels object are skipped.
func (c *Client) Labels(ctx context.Context, keyword, lang string) ([]Label, error) {
	u := c.SearchURL(keyword, lang)
	blob, err := c.http.Get(ctx, u, fetch.MediaTypeJSON)
	if err != nil {
		return nil, errors.Wrapf(err, "ELSST API request failed for %q", keyword)
	}

	var payload topicsResponse
	if err := json.Unmarshal(blob, &payload); err != nil {
		return nil, errors.Wrapf(err, "error decoding ELSST API response for %q", keyword)
	}

	var labels []Label
	for _, result := range payload.Results {
		var byLang map[string]interface{}
		if err := json.Unmarshal(result.Labels, &byLang); err != nil {
			continue
		}
		for l, text := range byLang {
			s, ok := text.(string)
			if !ok {
				continue
			}
			labels = append(labels, Label{Lang: l, Text: s})
		}
	}
	c.logger.WithFields(logrus.Fields{"keyword": keyword, "labels": len(labels)}).Debug("ELSST labels fetched")
	return labels, nil
}
