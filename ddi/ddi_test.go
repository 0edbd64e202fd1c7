package ddi_test

import (
	"strings"
	"testing"

	"github.com/JiscSD/cessda-fair-checker/ddi"
	"github.com/JiscSD/cessda-fair-checker/internal/testutil"

	"github.com/antchfx/xmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, doc string) *ddi.Codebook {
	t.Helper()
	cb, err := ddi.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return cb
}

func texts(fields []ddi.Field) []string {
	var values []string
	for _, f := range fields {
		values = append(values, f.Text())
	}
	return values
}

func TestParse_NoCodebook(t *testing.T) {
	_, err := ddi.Parse(strings.NewReader(`<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/"/>`))

	assert.Equal(t, ddi.ErrNoCodebook, err)
}

func TestParse_WrongNamespace(t *testing.T) {
	_, err := ddi.Parse(strings.NewReader(`<codeBook xmlns="ddi:codebook:2_6"><stdyDscr/></codeBook>`))

	assert.Equal(t, ddi.ErrNoCodebook, err)
}

func TestParse_Malformed(t *testing.T) {
	_, err := ddi.Parse(strings.NewReader(`<codeBook xmlns="ddi:codebook:2_5"><stdyDscr>`))

	assert.Error(t, err)
}

func TestExtract_DocumentOrder(t *testing.T) {
	cb := parse(t, testutil.OAIRecord(`
		<method><dataColl>
			<collMode>Interview</collMode>
			<collMode>  Self-administered questionnaire  </collMode>
			<collMode/>
		</dataColl></method>`))

	fields, err := cb.Extract(ddi.CollectionModePath)

	require.NoError(t, err)
	assert.Equal(t, []string{"Interview", "Self-administered questionnaire", ""}, texts(fields))
	assert.Equal(t, "collMode", fields[0].Name())
}

func TestExtract_NoMatch(t *testing.T) {
	cb := parse(t, testutil.OAIRecord(`<citation/>`))

	fields, err := cb.Extract(ddi.AccessRightsPath)

	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestExtract_InvalidPath(t *testing.T) {
	cb := parse(t, testutil.OAIRecord(``))

	_, err := cb.Extract(ddi.Path("//ddi:codeBook["))

	assert.Error(t, err)
}

func TestExtract_IgnoresOtherNamespaces(t *testing.T) {
	cb := parse(t, testutil.OAIRecord(`
		<dataAccs>
			<typeOfAccess>Open</typeOfAccess>
			<typeOfAccess xmlns="urn:other">Restricted</typeOfAccess>
		</dataAccs>`))

	fields, err := cb.Extract(ddi.AccessRightsPath)

	require.NoError(t, err)
	assert.Equal(t, []string{"Open"}, texts(fields))
}

func TestExtract_PrefixedElements(t *testing.T) {
	cb := parse(t, `<c:codeBook xmlns:c="ddi:codebook:2_5"><c:stdyDscr><c:dataAccs><c:typeOfAccess>Open</c:typeOfAccess></c:dataAccs></c:stdyDscr></c:codeBook>`)

	fields, err := cb.Extract(ddi.AccessRightsPath)

	require.NoError(t, err)
	assert.Equal(t, []string{"Open"}, texts(fields))
}

func TestField_Attr(t *testing.T) {
	cb := parse(t, testutil.OAIRecord(`
		<citation><titlStmt>
			<IDNo agency="DOI">10.1234/abc</IDNo>
			<IDNo>plain</IDNo>
		</titlStmt></citation>`))

	fields, err := cb.Extract(ddi.PIDPath)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	agency, ok := fields[0].Attr("agency")
	assert.True(t, ok)
	assert.Equal(t, "DOI", agency)
	assert.Equal(t, "10.1234/abc", fields[0].Text())

	_, ok = fields[1].Attr("agency")
	assert.False(t, ok)
}

func TestFromDocument_Detached(t *testing.T) {
	doc, err := xmlquery.Parse(strings.NewReader(testutil.OAIRecord(`<dataAccs><typeOfAccess>Open</typeOfAccess></dataAccs>`)))
	require.NoError(t, err)

	cb, err := ddi.FromDocument(doc)
	require.NoError(t, err)

	// The envelope is not reachable from the copy.
	fields, err := cb.Extract(ddi.Path("//*[local-name()='OAI-PMH' or local-name()='header']"))
	require.NoError(t, err)
	assert.Empty(t, fields)

	// Changing the source document does not affect the copy.
	n := xmlquery.FindOne(doc, "//*[local-name()='typeOfAccess']")
	require.NotNil(t, n)
	n.FirstChild.Data = "Restricted"

	fields, err = cb.Extract(ddi.AccessRightsPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Open"}, texts(fields))

	assert.Contains(t, cb.XML(), "typeOfAccess")
	assert.NotContains(t, cb.XML(), "GetRecord")
}

func TestParse_Fixture(t *testing.T) {
	cb, err := ddi.Parse(strings.NewReader(string(testutil.Fixture(t, "oai_record.xml"))))
	require.NoError(t, err)

	tests := map[ddi.Path][]string{
		ddi.AccessRightsPath:      {"Open"},
		ddi.PIDPath:               {"10.5281/zenodo.1234567"},
		ddi.KeywordPath:           {"EMPLOYMENT", "working conditions"},
		ddi.TopicClassPath:        {"Labour and employment"},
		ddi.AnalysisUnitPath:      {"Individual"},
		ddi.TimeMethodPath:        {"Cross-section"},
		ddi.SamplingProcedurePath: {"Probability.SimpleRandom"},
		ddi.CollectionModePath:    {"Interview.FaceToFace"},
	}
	for p, wanted := range tests {
		fields, err := cb.Extract(p)
		require.NoError(t, err)
		assert.Equal(t, wanted, texts(fields), string(p))
	}
}
