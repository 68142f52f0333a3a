// Package subscriber subscribes newly created log groups to the log shipping
// function.
package subscriber

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/convox/logger"
	"github.com/pkg/errors"

	"github.com/UKHomeOffice/logsync/internal/config"
	"github.com/UKHomeOffice/logsync/internal/event"
)

// SubscriptionPutter is an abstraction (helpful for testing)
type SubscriptionPutter interface {
	PutSubscriptionFilterWithContext(aws.Context, *cloudwatchlogs.PutSubscriptionFilterInput, ...request.Option) (*cloudwatchlogs.PutSubscriptionFilterOutput, error)
}

// Subscriber registers subscription filters
type Subscriber struct {
	cwl SubscriptionPutter
	cfg *config.Subscription
	log *logger.Logger
}

// NewSubscriber returns a new subscriber
func NewSubscriber(p SubscriptionPutter, cfg *config.Subscription) *Subscriber {
	return &Subscriber{cwl: p, cfg: cfg, log: logger.New("ns=subscriber")}
}

// WithLogger replaces the default logger
func (s *Subscriber) WithLogger(l *logger.Logger) *Subscriber {
	s.log = l
	return s
}

func (s *Subscriber) excluded(logGroup string) bool {
	for _, p := range s.cfg.ExcludedPrefixes {
		if strings.HasPrefix(logGroup, p) {
			return true
		}
	}
	return false
}

// Subscribe puts the configured subscription filter on the log group named
// in a CreateLogGroup event. A filter with the same name is replaced.
func (s *Subscriber) Subscribe(ctx context.Context, ev events.CloudWatchEvent) error {

	log := s.log.At("Subscribe")

	name, err := event.LogGroupName(ev.Detail)
	if err != nil {
		return log.Error(errors.Wrap(err, "could not read log group name"))
	}

	log = log.Namespace("log_group=%q", name).Start()

	if s.excluded(name) {
		log.Logf("state=skipped reason=excluded")
		return nil
	}

	input := &cloudwatchlogs.PutSubscriptionFilterInput{
		DestinationArn: aws.String(s.cfg.DestinationArn),
		FilterName:     aws.String(s.cfg.FilterName),
		FilterPattern:  aws.String(s.cfg.FilterPattern),
		LogGroupName:   aws.String(name),
	}
	if s.cfg.RoleArn != "" {
		input.RoleArn = aws.String(s.cfg.RoleArn)
	}

	_, err = s.cwl.PutSubscriptionFilterWithContext(ctx, input)
	if err != nil {
		return log.Error(errors.Wrapf(err, "failed to subscribe %v", name))
	}

	log.Successf("filter=%q destination=%q", s.cfg.FilterName, s.cfg.DestinationArn)
	return nil
}
