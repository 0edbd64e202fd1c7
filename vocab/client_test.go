package vocab_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/JiscSD/cessda-fair-checker/internal/fetch"
	"github.com/JiscSD/cessda-fair-checker/internal/testutil"
	"github.com/JiscSD/cessda-fair-checker/vocab"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientURL(t *testing.T) {
	c := vocab.NewClient(logrus.New(), nil, map[vocab.Category]string{
		vocab.AccessRights: "http://localhost/access",
		vocab.PIDSchemes:   "",
	})

	u, ok := c.URL(vocab.AccessRights)
	assert.True(t, ok)
	assert.Equal(t, "http://localhost/access", u)

	u, ok = c.URL(vocab.PIDSchemes)
	assert.True(t, ok)
	assert.Equal(t, vocab.DefaultURLs[vocab.PIDSchemes], u)

	_, ok = c.URL(vocab.Category("unknown"))
	assert.False(t, ok)
}

func TestClientTerms(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		// To provision the test.
		respStatus  int
		respPayload string

		// To evaluate the results.
		wantedTerms []string
		wantedErr   bool
	}{
		"Titles of the first version": {
			respPayload: `{"versions": [
				{"concepts": [{"title": "Open"}, {"title": " Restricted "}]},
				{"concepts": [{"title": "Embargoed"}]}
			]}`,
			wantedTerms: []string{"Open", "Restricted"},
		},
		"Blank and missing titles are skipped": {
			respPayload: `{"versions": [{"concepts": [{"title": ""}, {"title": "   "}, {"notation": "x"}, {"title": "DOI"}]}]}`,
			wantedTerms: []string{"DOI"},
		},
		"Null titles are skipped": {
			respPayload: `{"versions": [{"concepts": [{"title": null}, {"title": "URN"}]}]}`,
			wantedTerms: []string{"URN"},
		},
		"Non-string titles are rejected": {
			respPayload: `{"versions": [{"concepts": [{"title": 42}, {"title": "DOI"}]}]}`,
			wantedErr:   true,
		},
		"Titles in later versions are checked too": {
			respPayload: `{"versions": [{"concepts": [{"title": "DOI"}]}, {"concepts": [{"title": {"en": "Handle"}}]}]}`,
			wantedErr:   true,
		},
		"No versions": {
			respPayload: `{"versions": []}`,
			wantedTerms: []string{},
		},
		"No versions field": {
			respPayload: `{"notation": "AccessRights"}`,
			wantedTerms: []string{},
		},
		"Version without concepts": {
			respPayload: `{"versions": [{"number": "1.0.0"}]}`,
			wantedTerms: []string{},
		},
		"Concepts of the wrong type": {
			respPayload: `{"versions": [{"concepts": "Open"}]}`,
			wantedErr:   true,
		},
		"Not JSON": {
			respPayload: `<html/>`,
			wantedErr:   true,
		},
		"Server error": {
			respStatus: http.StatusInternalServerError,
			wantedErr:  true,
		},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			svc := testutil.NewServices(t)
			if tc.respStatus != 0 {
				svc.Fail("/vocabularies/access-rights", tc.respStatus)
			}
			svc.SetVocabulary(vocab.AccessRights, tc.respPayload)

			logger := logrus.New()
			c := vocab.NewClient(logger, fetch.New(logger, fetch.Options{}), svc.VocabularyURLs())
			set, err := c.Terms(context.Background(), vocab.AccessRights)

			if tc.wantedErr {
				assert.Error(t, err)
				assert.Equal(t, 0, set.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantedTerms, set.Terms())
		})
	}
}

func TestClientTerms_UnknownCategory(t *testing.T) {
	c := vocab.NewClient(logrus.New(), nil, nil)

	_, err := c.Terms(context.Background(), vocab.Category("unknown"))

	assert.Error(t, err)
}
