package testutil

import (
	"fmt"
	"io/ioutil"
	"path"
	"runtime"
	"testing"
)

// MustFixture returns the contents of testdata/name or panics.
func MustFixture(name string) []byte {
	bytes, err := ioutil.ReadFile(fixturePath(name))
	if err != nil {
		panic(fmt.Sprintf("error loading fixture %s: %v", name, err))
	}

	return bytes
}

// Fixture returns the contents of testdata/name.
func Fixture(t *testing.T, name string) []byte {
	t.Helper()

	p := fixturePath(name)
	bytes, err := ioutil.ReadFile(p)
	if err != nil {
		t.Fatalf("error loading fixture %s: %v", p, err)
	}

	return bytes
}

func fixturePath(name string) string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("error loading caller")
	}
	return path.Join(path.Dir(filename), "testdata", name)
}

// OAIRecord wraps the children of a stdyDscr element in a DDI codeBook and
// an OAI-PMH GetRecord envelope.
func OAIRecord(stdyDscr string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <responseDate>2025-01-01T00:00:00Z</responseDate>
  <request verb="GetRecord" metadataPrefix="oai_ddi25">https://datacatalogue.cessda.eu/oai-pmh/v0/oai</request>
  <GetRecord>
    <record>
      <header><identifier>S1</identifier></header>
      <metadata>
        <codeBook xmlns="ddi:codebook:2_5">
          <stdyDscr>` + stdyDscr + `</stdyDscr>
        </codeBook>
      </metadata>
    </record>
  </GetRecord>
</OAI-PMH>`
}

// VocabularyJSON returns a Vocabulary Service document whose first version
// lists the given concept titles.
func VocabularyJSON(titles ...string) string {
	concepts := ""
	for i, t := range titles {
		if i > 0 {
			concepts += ","
		}
		concepts += fmt.Sprintf(`{"notation": "c%d", "title": %q}`, i, t)
	}
	return `{"versions": [{"number": "1.0.0", "concepts": [` + concepts + `]}]}`
}
