// Package config reads function settings from the environment. Settings are
// read once at cold start and never change for the life of the process.
package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Ingest modes
const (
	ModeSingle = "single"
	ModeBulk   = "bulk"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
)

// Subscription configures the subscription registrar
type Subscription struct {
	DestinationArn   string
	FilterName       string
	FilterPattern    string
	RoleArn          string
	ExcludedPrefixes []string
}

// Search configures access to the search backend
type Search struct {
	Host        string
	Service     string
	IndexPrefix string
	Timeout     time.Duration
	MaxAttempts int
}

// Ingest configures the log ingestor
type Ingest struct {
	Search
	Mode           string
	DocumentFilter string
	FailedQueueURL string
}

func required(name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", errors.Errorf("missing environment variable: %v", name)
	}
	return v, nil
}

func requiredNonEmpty(name string) (string, error) {
	v, err := required(name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", errors.Errorf("empty environment variable: %v", name)
	}
	return v, nil
}

// LoadSubscription reads the registrar settings
func LoadSubscription() (*Subscription, error) {

	dest, err := requiredNonEmpty("TARGET_LAMBDA_FUNCTION_ARN")
	if err != nil {
		return nil, err
	}
	name, err := requiredNonEmpty("CLOUDWATCH_FILTER_NAME")
	if err != nil {
		return nil, err
	}
	// an empty pattern matches every log line
	pattern, err := required("CLOUDWATCH_FILTER_PATTERN")
	if err != nil {
		return nil, err
	}

	s := &Subscription{
		DestinationArn: dest,
		FilterName:     name,
		FilterPattern:  pattern,
		RoleArn:        os.Getenv("SUBSCRIPTION_ROLE_ARN"),
	}

	for _, p := range strings.Split(os.Getenv("EXCLUDED_LOG_GROUP_PREFIXES"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			s.ExcludedPrefixes = append(s.ExcludedPrefixes, p)
		}
	}

	return s, nil
}

// LoadSearch reads the search backend settings
func LoadSearch() (*Search, error) {

	host, err := requiredNonEmpty("ES_HOST")
	if err != nil {
		return nil, err
	}
	service, err := requiredNonEmpty("ES_SERVICE_NAME")
	if err != nil {
		return nil, err
	}
	prefix, err := requiredNonEmpty("ES_INDEX_PREFIX")
	if err != nil {
		return nil, err
	}

	s := &Search{
		Host:        host,
		Service:     service,
		IndexPrefix: prefix,
		Timeout:     defaultTimeout,
		MaxAttempts: defaultMaxAttempts,
	}

	if v, ok := os.LookupEnv("ES_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrap(err, "invalid ES_TIMEOUT")
		}
		s.Timeout = d
	}

	if v, ok := os.LookupEnv("ES_MAX_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, errors.Errorf("invalid ES_MAX_ATTEMPTS: %q", v)
		}
		s.MaxAttempts = n
	}

	if _, err := s.Endpoint(); err != nil {
		return nil, err
	}

	return s, nil
}

// LoadIngest reads the ingestor settings
func LoadIngest() (*Ingest, error) {

	s, err := LoadSearch()
	if err != nil {
		return nil, err
	}

	in := &Ingest{
		Search:         *s,
		Mode:           ModeSingle,
		DocumentFilter: strings.TrimSpace(os.Getenv("DOCUMENT_FILTER")),
		FailedQueueURL: os.Getenv("FAILED_DOCUMENTS_QUEUE_URL"),
	}

	if v := os.Getenv("INGEST_MODE"); v != "" {
		switch v {
		case ModeSingle, ModeBulk:
			in.Mode = v
		default:
			return nil, errors.Errorf("invalid INGEST_MODE: %q", v)
		}
	}

	return in, nil
}

// Endpoint returns the base URL of the search backend. A bare host name,
// as used for OpenSearch Serverless collections, means https on port 443.
func (s *Search) Endpoint() (*url.URL, error) {

	raw := strings.TrimSpace(s.Host)
	if !strings.Contains(raw, "://") {
		host := strings.TrimRight(raw, "/")
		if _, _, err := net.SplitHostPort(host); err != nil {
			host = net.JoinHostPort(host, "443")
		}
		raw = "https://" + host
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "could not form search endpoint")
	}
	if u.Host == "" {
		return nil, errors.Errorf("no host in search endpoint: %q", s.Host)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}
