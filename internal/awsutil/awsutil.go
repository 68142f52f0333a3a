// Package awsutil builds the AWS clients shared by the functions. Clients are
// built once per cold start and handed to the handlers.
package awsutil

import (
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/convox/logger"

	"github.com/UKHomeOffice/logsync/internal/client"
	"github.com/UKHomeOffice/logsync/internal/config"
	"github.com/UKHomeOffice/logsync/internal/retry"
)

// NewSession returns a session using the function's execution role
func NewSession() *session.Session {
	return session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
		Config:            aws.Config{Region: aws.String(os.Getenv("AWS_REGION"))},
	}))
}

// NewSearchClient returns a search client signing with the session's
// credentials
func NewSearchClient(sess *session.Session, cfg *config.Search) (*client.Client, error) {

	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, err
	}

	region := aws.StringValue(sess.Config.Region)

	c := client.New(endpoint, v4.NewSigner(sess.Config.Credentials), cfg.Service, region)
	c.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	c.Retry = retry.NewPolicy(cfg.MaxAttempts, client.IsRetryable)
	c.Log = logger.New("ns=search").Namespace("host=%s", endpoint.Host)

	return c, nil
}
