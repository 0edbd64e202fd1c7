package record_test

import (
	"testing"

	"github.com/JiscSD/cessda-fair-checker/record"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		url       string
		wantedID  string
		wantedErr bool
	}{
		"Identifier before the query string": {
			url:      "https://datacatalogue.cessda.eu/detail/abc123?lang=en",
			wantedID: "abc123",
		},
		"Identifier without query string": {
			url:      "https://datacatalogue.cessda.eu/detail/abc123",
			wantedID: "abc123",
		},
		"Identifier keeps further path segments": {
			url:      "https://datacatalogue.cessda.eu/detail/abc/123?lang=de",
			wantedID: "abc/123",
		},
		"Missing detail segment": {
			url:       "https://datacatalogue.cessda.eu/search?q=x",
			wantedErr: true,
		},
		"Detail segment only in the query string": {
			url:       "https://datacatalogue.cessda.eu/search?next=/detail/abc",
			wantedErr: true,
		},
		"Empty identifier": {
			url:       "https://datacatalogue.cessda.eu/detail/?lang=en",
			wantedErr: true,
		},
		"Empty URL": {
			url:       "",
			wantedErr: true,
		},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ref, err := record.Parse(tc.url)

			if tc.wantedErr {
				require.Error(t, err)
				assert.Equal(t, record.ErrMalformedReference, errors.Cause(err))
				assert.Nil(t, ref)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantedID, ref.ID)
			assert.Equal(t, tc.url, ref.URL)
		})
	}
}

func TestParse_Language(t *testing.T) {
	ref, err := record.Parse("https://datacatalogue.cessda.eu/detail/abc123?lang=FI")

	require.NoError(t, err)
	assert.Equal(t, "fi", ref.Lang)
}

func TestLanguageCode(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		url    string
		wanted string
	}{
		"Plain lang parameter":           {"https://x/detail/a?lang=en", "en"},
		"Upper-case value":               {"https://x/detail/a?lang=EN", "en"},
		"Upper-case parameter name":      {"https://x/detail/a?LANG=de", "de"},
		"Among other parameters":         {"https://x/detail/a?page=2&lang=sv&sort=asc", "sv"},
		"Three letters":                  {"https://x/detail/a?lang=eng", ""},
		"Non-letters":                    {"https://x/detail/a?lang=e1", ""},
		"Region subtag":                  {"https://x/detail/a?lang=en-GB", ""},
		"First valid occurrence wins":    {"https://x/detail/a?lang=xyz&lang=fr&lang=de", "fr"},
		"No query string":                {"https://x/detail/a", ""},
		"Parameter without value":        {"https://x/detail/a?lang", ""},
		"Parameter with a longer name":   {"https://x/detail/a?language=en", ""},
		"Empty value":                    {"https://x/detail/a?lang=", ""},
		"Unparseable URL":                {"://bad?lang=en", ""},
		"Fragment after the parameter":   {"https://x/detail/a?lang=nl#top", "nl"},
		"Parameter before another one":   {"https://x/detail/a?lang=nl&x=1", "nl"},
		"Value surrounded by separators": {"https://x/detail/a?&lang=it&", "it"},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.wanted, record.LanguageCode(tc.url))
		})
	}
}
