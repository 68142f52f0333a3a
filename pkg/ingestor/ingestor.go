// Package ingestor writes CloudWatch Logs subscription deliveries to the
// search backend, one document per log event.
package ingestor

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/convox/logger"
	"github.com/pkg/errors"

	"github.com/UKHomeOffice/logsync/internal/category"
	"github.com/UKHomeOffice/logsync/internal/client"
	"github.com/UKHomeOffice/logsync/internal/config"
)

const maxReportedErrors = 10

// Writer is an abstraction for the search client
type Writer interface {
	EnsureIndex(ctx context.Context, index string) (bool, error)
	Index(ctx context.Context, index, id string, doc interface{}) (*client.IndexResult, error)
	Bulk(ctx context.Context, items []client.BulkItem) (*client.BulkResult, error)
}

// Ingestor indexes log batches
type Ingestor struct {
	es     Writer
	prefix string
	mode   string
	filter *Filter
	dlq    *deadLetter
	log    *logger.Logger
}

// Report summarises one delivery
type Report struct {
	LogGroup     string   `json:"log_group"`
	LogStream    string   `json:"log_stream"`
	Index        string   `json:"index,omitempty"`
	LogType      string   `json:"log_type,omitempty"`
	Control      bool     `json:"control,omitempty"`
	IndexCreated bool     `json:"index_created,omitempty"`
	Received     int      `json:"received"`
	Indexed      int      `json:"indexed"`
	Skipped      int      `json:"skipped"`
	Failed       int      `json:"failed"`
	Errors       []string `json:"errors,omitempty"`
}

func (r *Report) addError(err error) {
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, err.Error())
	}
}

type failure struct {
	doc Document
	err error
}

// NewIngestor returns an ingestor writing with es. It fails when the
// document filter does not compile.
func NewIngestor(es Writer, cfg *config.Ingest) (*Ingestor, error) {

	f, err := NewFilter(cfg.DocumentFilter)
	if err != nil {
		return nil, err
	}

	mode := cfg.Mode
	if mode == "" {
		mode = config.ModeSingle
	}

	return &Ingestor{
		es:     es,
		prefix: cfg.IndexPrefix,
		mode:   mode,
		filter: f,
		log:    logger.New("ns=ingestor"),
	}, nil
}

// WithDeadLetter publishes documents that could not be indexed to queueURL
func (i *Ingestor) WithDeadLetter(m Messenger, queueURL string) *Ingestor {
	if queueURL != "" {
		i.dlq = &deadLetter{sqs: m, queueURL: queueURL}
	}
	return i
}

// WithLogger replaces the default logger
func (i *Ingestor) WithLogger(l *logger.Logger) *Ingestor {
	i.log = l
	return i
}

// Ingest decodes a delivery, classifies it by log group, and writes every
// event as a document to the category index. The invocation fails when the
// delivery cannot be decoded, the index cannot be ensured, or any document
// fails to index.
func (i *Ingestor) Ingest(ctx context.Context, ev events.CloudwatchLogsEvent) (Report, error) {

	log := i.log.At("Ingest")

	batch, err := Decode(ev.AWSLogs.Data)
	if err != nil {
		return Report{}, log.Error(err)
	}

	rep := Report{
		LogGroup:  batch.LogGroup,
		LogStream: batch.LogStream,
		Received:  len(batch.LogEvents),
	}

	if batch.MessageType == controlMessage {
		rep.Control = true
		rep.Skipped = rep.Received
		log.Logf("state=skipped message_type=%s", batch.MessageType)
		return rep, nil
	}

	docs, cat := NewDocuments(batch)
	rep.LogType = cat.String()
	rep.Index = category.IndexName(i.prefix, cat)

	log = log.Namespace("log_group=%q index=%s mode=%s", batch.LogGroup, rep.Index, i.mode).Start()

	docs = i.apply(docs, &rep)
	if len(docs) == 0 {
		log.Successf("received=%d indexed=0 skipped=%d", rep.Received, rep.Skipped)
		return rep, nil
	}

	created, err := i.es.EnsureIndex(ctx, rep.Index)
	if err != nil {
		rep.Failed = len(docs)
		rep.addError(err)
		return rep, log.Error(errors.Wrap(err, "could not ensure index"))
	}
	rep.IndexCreated = created

	var failed []failure
	if i.mode == config.ModeBulk {
		failed = i.writeBulk(ctx, rep.Index, docs)
	} else {
		failed = i.writeEach(ctx, rep.Index, docs)
	}

	rep.Failed = len(failed)
	rep.Indexed = len(docs) - len(failed)
	for _, f := range failed {
		rep.addError(f.err)
	}

	if i.dlq != nil {
		for _, f := range failed {
			if err := i.dlq.publish(ctx, rep.Index, f.doc, f.err); err != nil {
				log.Logf("state=dead_letter_failed id=%s error=%q", f.doc.Key(), err)
				rep.addError(err)
			}
		}
	}

	if rep.Failed > 0 {
		return rep, log.Error(errors.Errorf("%d of %d documents failed to index into %v", rep.Failed, len(docs), rep.Index))
	}

	log.Successf("received=%d indexed=%d skipped=%d", rep.Received, rep.Indexed, rep.Skipped)
	return rep, nil
}

// apply drops documents rejected by the filter. A document the filter cannot
// evaluate is kept.
func (i *Ingestor) apply(docs []Document, rep *Report) []Document {

	if i.filter == nil {
		return docs
	}

	kept := docs[:0]
	for _, d := range docs {
		ok, err := i.filter.Keep(d)
		if err != nil {
			i.log.At("apply").Logf("state=kept id=%s error=%q", d.Key(), err)
			ok = true
		}
		if !ok {
			rep.Skipped++
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// writeEach indexes documents one at a time, in batch order
func (i *Ingestor) writeEach(ctx context.Context, index string, docs []Document) []failure {

	var failed []failure
	for _, d := range docs {
		if _, err := i.es.Index(ctx, index, d.Key(), d); err != nil {
			failed = append(failed, failure{doc: d, err: err})
		}
	}
	return failed
}

// writeBulk indexes all documents in one request
func (i *Ingestor) writeBulk(ctx context.Context, index string, docs []Document) []failure {

	items := make([]client.BulkItem, len(docs))
	for n, d := range docs {
		items[n] = client.BulkItem{Index: index, ID: d.Key(), Document: d}
	}

	res, err := i.es.Bulk(ctx, items)
	if err != nil {
		failed := make([]failure, len(docs))
		for n, d := range docs {
			failed[n] = failure{doc: d, err: err}
		}
		return failed
	}

	var failed []failure
	for n, it := range res.Items {
		if it.Error != nil {
			failed = append(failed, failure{doc: docs[n], err: errors.Wrapf(it.Error, "document %v", it.ID)})
		}
	}
	return failed
}
