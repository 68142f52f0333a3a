package ingestor

import (
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"

	"github.com/UKHomeOffice/logsync/internal/category"
)

const controlMessage = "CONTROL_MESSAGE"

// Metadata is shared by every document of a batch
type Metadata struct {
	Owner               string            `json:"owner"`
	LogGroup            string            `json:"logGroup"`
	LogStream           string            `json:"logStream"`
	SubscriptionFilters []string          `json:"subscriptionFilters"`
	LogType             category.Category `json:"log_type"`
}

// Document is one log event merged with its batch metadata
type Document struct {
	Metadata
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
	ID        string `json:"id"`
}

// Key is the document identifier in the index: the event timestamp in
// milliseconds. Events of a batch sharing a timestamp share a key, and the
// later one replaces the earlier.
func (d Document) Key() string {
	return strconv.FormatInt(d.Timestamp, 10)
}

// Decode turns the awslogs data of a subscription delivery (base64 encoded
// gzip compressed JSON) into a batch
func Decode(data string) (events.CloudwatchLogsData, error) {

	if data == "" {
		return events.CloudwatchLogsData{}, errors.New("no awslogs data in event")
	}

	batch, err := events.CloudwatchLogsRawData{Data: data}.Parse()
	if err != nil {
		return events.CloudwatchLogsData{}, errors.Wrap(err, "could not decode awslogs data")
	}

	return batch, nil
}

// NewDocuments classifies a batch and builds one document per log event, in
// delivery order
func NewDocuments(batch events.CloudwatchLogsData) ([]Document, category.Category) {

	cat := category.ForDeliveredLogGroup(batch.LogGroup)

	meta := Metadata{
		Owner:               batch.Owner,
		LogGroup:            batch.LogGroup,
		LogStream:           batch.LogStream,
		SubscriptionFilters: batch.SubscriptionFilters,
		LogType:             cat,
	}

	docs := make([]Document, 0, len(batch.LogEvents))
	for _, e := range batch.LogEvents {
		docs = append(docs, Document{
			Metadata:  meta,
			Timestamp: e.Timestamp,
			Message:   e.Message,
			ID:        e.ID,
		})
	}

	return docs, cat
}
