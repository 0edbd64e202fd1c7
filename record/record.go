// Package record parses CESSDA Data Catalogue detail URLs.
package record

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// DetailSegment marks the position of the record identifier in a catalogue
// detail URL, e.g. https://datacatalogue.cessda.eu/detail/abc123?lang=en.
const DetailSegment = "/detail/"

// ErrMalformedReference is the cause of every error returned by Parse.
var ErrMalformedReference = errors.New("malformed record reference")

var langCodeRegexp = regexp.MustCompile(`^[a-zA-Z]{2}$`)

// Reference is a parsed catalogue detail URL.
type Reference struct {
	URL string

	// ID is the record identifier used in OAI-PMH requests.
	ID string

	// Lang is the lower-cased two-letter language code found in the lang
	// query parameter, or the empty string.
	Lang string
}

// Parse extracts the record identifier and the language code from raw.
func Parse(raw string) (*Reference, error) {
	pos := strings.Index(raw, DetailSegment)
	if pos < 0 {
		return nil, errors.Wrapf(ErrMalformedReference, "URL must contain %q: %s", DetailSegment, raw)
	}
	path := raw
	if q := strings.Index(path, "?"); q >= 0 {
		path = path[:q]
	}
	// The segment may only sit in the query string.
	if pos >= len(path) {
		return nil, errors.Wrapf(ErrMalformedReference, "URL must contain %q: %s", DetailSegment, raw)
	}
	id := path[pos+len(DetailSegment):]
	if id == "" {
		return nil, errors.Wrapf(ErrMalformedReference, "no record identifier in URL: %s", raw)
	}
	return &Reference{URL: raw, ID: id, Lang: LanguageCode(raw)}, nil
}

// LanguageCode returns the value of the first lang query parameter that is
// exactly two letters, lower-cased. The parameter name is matched
// case-insensitively. It returns the empty string otherwise.
func LanguageCode(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return ""
	}
	for _, param := range strings.Split(u.RawQuery, "&") {
		kv := strings.SplitN(param, "=", 2)
		if len(kv) != 2 || !strings.EqualFold(kv[0], "lang") {
			continue
		}
		if langCodeRegexp.MatchString(kv[1]) {
			return strings.ToLower(kv[1])
		}
	}
	return ""
}
