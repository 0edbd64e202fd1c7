// Package oaipmh retrieves DDI 2.5 records from the CESSDA OAI-PMH endpoint.
package oaipmh

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/JiscSD/cessda-fair-checker/ddi"
	"github.com/JiscSD/cessda-fair-checker/internal/fetch"

	"github.com/antchfx/xmlquery"
	"github.com/sirupsen/logrus"
)

// DefaultEndpoint is the CESSDA Data Catalogue OAI-PMH base URL.
const DefaultEndpoint = "https://datacatalogue.cessda.eu/oai-pmh/v0/oai"

// MetadataPrefix selects the DDI Codebook 2.5 representation.
const MetadataPrefix = "oai_ddi25"

// TransportError means the record could not be retrieved: network failure,
// timeout, unexpected status or empty body.
type TransportError struct {
	Identifier string
	Err        error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("error fetching record %s: %v", err.Identifier, err.Err)
}

func (err *TransportError) Cause() error { return err.Err }

// ParseError means the response body is not well-formed XML.
type ParseError struct {
	Identifier string
	Err        error
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("error parsing record %s: %v", err.Identifier, err.Err)
}

func (err *ParseError) Cause() error { return err.Err }

// NotFoundError means the response holds no codeBook element. Code and
// Message carry the OAI-PMH error reported by the repository, if any.
type NotFoundError struct {
	Identifier string
	Code       string
	Message    string
}

func (err *NotFoundError) Error() string {
	if err.Code != "" {
		return fmt.Sprintf("no DDI codeBook found for record %s: %s (%s)", err.Identifier, err.Code, err.Message)
	}
	return fmt.Sprintf("no DDI codeBook found for record %s", err.Identifier)
}

// Client performs GetRecord requests.
type Client struct {
	logger   logrus.FieldLogger
	endpoint string
	http     *fetch.Client
}

func New(logger logrus.FieldLogger, endpoint string, httpClient *fetch.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		logger:   logger,
		endpoint: endpoint,
		http:     httpClient,
	}
}

// RecordURL returns the GetRecord URL for the given record identifier.
func (c *Client) RecordURL(identifier string) string {
	q := url.Values{}
	q.Set("verb", "GetRecord")
	q.Set("metadataPrefix", MetadataPrefix)
	q.Set("identifier", identifier)
	return c.endpoint + "?" + q.Encode()
}

// GetCodebook retrieves the record and returns its codeBook element as a
// standalone document. It makes a single attempt unless the underlying
// client is configured with retries.
func (c *Client) GetCodebook(ctx context.Context, identifier string) (*ddi.Codebook, error) {
	u := c.RecordURL(identifier)
	logger := c.logger.WithField("record", identifier)

	blob, err := c.http.Get(ctx, u, fetch.MediaTypeXML)
	if err != nil {
		return nil, &TransportError{Identifier: identifier, Err: err}
	}

	logger.WithField("url", u).Debug("Parsing XML response from OAI-PMH endpoint")
	doc, err := xmlquery.Parse(bytes.NewReader(blob))
	if err != nil {
		return nil, &ParseError{Identifier: identifier, Err: err}
	}

	cb, err := ddi.FromDocument(doc)
	if err == ddi.ErrNoCodebook {
		nf := &NotFoundError{Identifier: identifier}
		if e := xmlquery.FindOne(doc, "//*[local-name()='error']"); e != nil {
			nf.Code = e.SelectAttr("code")
			nf.Message = strings.TrimSpace(e.InnerText())
		}
		return nil, nf
	}
	if err != nil {
		return nil, err
	}
	return cb, nil
}
