// Package ddi extracts fields from DDI Codebook 2.5 documents.
//
// A Codebook is always a detached copy of the codeBook element: the OAI-PMH
// envelope it was delivered in is not reachable from it, so queries only see
// the canonical metadata.
package ddi

import (
	"io"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/pkg/errors"
)

// Namespace is the DDI Codebook 2.5 namespace, bound to the "ddi" prefix in
// every Path.
const Namespace = "ddi:codebook:2_5"

var namespaces = map[string]string{"ddi": Namespace}

// ErrNoCodebook is returned when a document does not contain a codeBook
// element.
var ErrNoCodebook = errors.New("no DDI codeBook found")

// Path is an XPath expression evaluated against a codebook. The "ddi" prefix
// resolves to Namespace.
type Path string

const (
	CodebookPath          Path = "//ddi:codeBook"
	AccessRightsPath      Path = "//ddi:codeBook/ddi:stdyDscr/ddi:dataAccs/ddi:typeOfAccess"
	PIDPath               Path = "//ddi:codeBook/ddi:stdyDscr/ddi:citation/ddi:titlStmt/ddi:IDNo"
	KeywordPath           Path = "//ddi:codeBook/ddi:stdyDscr/ddi:stdyInfo/ddi:subject/ddi:keyword"
	TopicClassPath        Path = "//ddi:codeBook/ddi:stdyDscr/ddi:stdyInfo/ddi:subject/ddi:topcClas"
	AnalysisUnitPath      Path = "//ddi:codeBook/ddi:stdyDscr/ddi:stdyInfo/ddi:sumDscr/ddi:anlyUnit"
	TimeMethodPath        Path = "//ddi:codeBook/ddi:stdyDscr/ddi:method/ddi:dataColl/ddi:timeMeth"
	SamplingProcedurePath Path = "//ddi:codeBook/ddi:stdyDscr/ddi:method/ddi:dataColl/ddi:sampProc"
	CollectionModePath    Path = "//ddi:codeBook/ddi:stdyDscr/ddi:method/ddi:dataColl/ddi:collMode"
)

var compiled sync.Map // Path -> *xpath.Expr

func (p Path) compile() (*xpath.Expr, error) {
	if expr, ok := compiled.Load(p); ok {
		return expr.(*xpath.Expr), nil
	}
	expr, err := xpath.CompileWithNS(string(p), namespaces)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid path %q", p)
	}
	compiled.Store(p, expr)
	return expr, nil
}

// Codebook is a standalone document holding a single codeBook element.
type Codebook struct {
	doc *xmlquery.Node
}

// Parse reads an XML document and returns a copy of its first codeBook
// element.
func Parse(r io.Reader) (*Codebook, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// FromDocument locates the first codeBook element under doc and copies it
// into a new document.
func FromDocument(doc *xmlquery.Node) (*Codebook, error) {
	expr, err := CodebookPath.compile()
	if err != nil {
		return nil, err
	}
	el := xmlquery.QuerySelector(doc, expr)
	if el == nil {
		return nil, ErrNoCodebook
	}
	root := &xmlquery.Node{Type: xmlquery.DocumentNode}
	xmlquery.AddChild(root, deepCopy(el))
	return &Codebook{doc: root}, nil
}

func deepCopy(n *xmlquery.Node) *xmlquery.Node {
	c := &xmlquery.Node{
		Type:         n.Type,
		Data:         n.Data,
		Prefix:       n.Prefix,
		NamespaceURI: n.NamespaceURI,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]xmlquery.Attr, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		xmlquery.AddChild(c, deepCopy(child))
	}
	return c
}

// Extract evaluates p and returns the matching fields in document order. No
// match is not an error.
func (cb *Codebook) Extract(p Path) ([]Field, error) {
	expr, err := p.compile()
	if err != nil {
		return nil, err
	}
	nodes := xmlquery.QuerySelectorAll(cb.doc, expr)
	fields := make([]Field, 0, len(nodes))
	for _, n := range nodes {
		fields = append(fields, Field{n: n})
	}
	return fields, nil
}

// XML serializes the codebook element.
func (cb *Codebook) XML() string {
	return cb.doc.OutputXML(false)
}

// Field is an element matched by a Path.
type Field struct {
	n *xmlquery.Node
}

// Name is the local name of the element.
func (f Field) Name() string {
	return f.n.Data
}

// Text returns the trimmed text content of the element.
func (f Field) Text() string {
	return strings.TrimSpace(f.n.InnerText())
}

// Attr returns the value of the attribute with the given local name.
func (f Field) Attr(name string) (string, bool) {
	for _, a := range f.n.Attr {
		if a.Name.Local == name && a.Name.Space != "xmlns" {
			return a.Value, true
		}
	}
	return "", false
}
