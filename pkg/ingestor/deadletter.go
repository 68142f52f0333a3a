package ingestor

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/pkg/errors"
)

// Messenger is an abstraction for a SQS client
type Messenger interface {
	SendMessageWithContext(aws.Context, *sqs.SendMessageInput, ...request.Option) (*sqs.SendMessageOutput, error)
}

// failedDocument is what lands on the failed documents queue
type failedDocument struct {
	Index    string   `json:"index"`
	ID       string   `json:"id"`
	Error    string   `json:"error"`
	Document Document `json:"document"`
}

type deadLetter struct {
	sqs      Messenger
	queueURL string
}

// publish writes a document that could not be indexed to SQS
func (d *deadLetter) publish(ctx context.Context, index string, doc Document, cause error) error {

	msg, err := json.Marshal(failedDocument{
		Index:    index,
		ID:       doc.Key(),
		Error:    cause.Error(),
		Document: doc,
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal SQS payload")
	}

	in := sqs.SendMessageInput{
		MessageBody: aws.String(string(msg)),
		QueueUrl:    aws.String(d.queueURL),
	}

	_, err = d.sqs.SendMessageWithContext(ctx, &in)
	if err != nil {
		return errors.Wrapf(err, "failed to publish document %v", doc.Key())
	}

	return nil
}
