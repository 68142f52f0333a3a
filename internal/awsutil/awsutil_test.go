package awsutil

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/UKHomeOffice/logsync/internal/config"
)

func TestNewSearchClient(t *testing.T) {

	sess := session.Must(session.NewSession(&aws.Config{
		Region:      aws.String("eu-west-2"),
		Credentials: credentials.NewStaticCredentials("AKID", "SECRET", ""),
	}))

	cfg := &config.Search{
		Host:        "abc123.eu-west-2.aoss.amazonaws.com",
		Service:     "aoss",
		IndexPrefix: "sagemaker-log",
		Timeout:     3 * time.Second,
		MaxAttempts: 4,
	}

	c, err := NewSearchClient(sess, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.BaseURL.String() != "https://abc123.eu-west-2.aoss.amazonaws.com:443" {
		t.Errorf("wrong base url: %v", c.BaseURL)
	}
	if c.Region != "eu-west-2" || c.Service != "aoss" {
		t.Errorf("wrong signing scope: %v/%v", c.Region, c.Service)
	}
	if c.HTTPClient.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", c.HTTPClient.Timeout)
	}
	if c.Retry.MaxAttempts != 4 {
		t.Errorf("expected 4 attempts, got %v", c.Retry.MaxAttempts)
	}
	if c.Signer == nil {
		t.Errorf("expected a signer")
	}
}

func TestNewSearchClientBadHost(t *testing.T) {
	sess := session.Must(session.NewSession(&aws.Config{Region: aws.String("eu-west-2")}))
	if _, err := NewSearchClient(sess, &config.Search{Host: "https://"}); err == nil {
		t.Errorf("expected error for host without a name")
	}
}
