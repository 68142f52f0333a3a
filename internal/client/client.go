// Package client talks to an Elasticsearch compatible search backend
// (Amazon OpenSearch Service or OpenSearch Serverless) over SigV4 signed HTTP.
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"time"

	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/convox/logger"
	"github.com/pkg/errors"

	"github.com/UKHomeOffice/logsync/internal/retry"
)

const defaultTimeout = 10 * time.Second

// Client is a HTTP client for the search backend
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	// Signer signs every request when set
	Signer  *v4.Signer
	Service string
	Region  string
	Retry   *retry.Policy
	Log     *logger.Logger
}

// New returns a client that signs requests for service in region and does
// not retry
func New(base *url.URL, signer *v4.Signer, service, region string) *Client {
	return &Client{
		BaseURL:    base,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Signer:     signer,
		Service:    service,
		Region:     region,
		Retry:      retry.Once(),
		Log:        logger.New("ns=search"),
	}
}

// Host returns the backend host, used in failure reports
func (c *Client) Host() string {
	return c.BaseURL.Host
}

// NewRequest creates a signed HTTP request
func (c *Client) NewRequest(ctx context.Context, method, path, contentType string, body []byte) (*http.Request, error) {

	p, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	u := c.BaseURL.ResolveReference(p)

	req, err := http.NewRequest(method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if c.Signer == nil {
		return req, nil
	}

	// OpenSearch Serverless rejects requests without a payload hash
	sum := sha256.Sum256(body)
	req.Header.Set("X-Amz-Content-Sha256", hex.EncodeToString(sum[:]))

	_, err = c.Signer.Sign(req, bytes.NewReader(body), c.Service, c.Region, time.Now())
	if err != nil {
		return nil, errors.Wrap(err, "could not sign request")
	}

	return req, nil
}

// Do makes a HTTP request. Failing to get any response is a ConnectionError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{Host: req.URL.Host, Err: err}
	}

	return resp, nil
}

func (c *Client) policy() *retry.Policy {
	if c.Retry == nil {
		return retry.Once()
	}
	return c.Retry
}

func (c *Client) logger() *logger.Logger {
	if c.Log == nil {
		return logger.New("ns=search")
	}
	return c.Log
}
