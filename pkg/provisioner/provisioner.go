// Package provisioner makes sure the search index for a newly created log
// group's category exists.
package provisioner

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/convox/logger"
	"github.com/pkg/errors"

	"github.com/UKHomeOffice/logsync/internal/category"
	"github.com/UKHomeOffice/logsync/internal/client"
	"github.com/UKHomeOffice/logsync/internal/event"
)

// Indexer is an abstraction for the search client
type Indexer interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string) (*client.CreateResult, error)
	Host() string
}

// Provisioner creates category indices
type Provisioner struct {
	es     Indexer
	prefix string
	log    *logger.Logger
}

// Result is the outcome of a provisioning run
type Result struct {
	LogGroup     string `json:"log_group"`
	Category     string `json:"category"`
	Index        string `json:"index"`
	Existed      bool   `json:"existed"`
	Created      bool   `json:"created"`
	Acknowledged bool   `json:"acknowledged,omitempty"`
	// Failure is set when the backend could not be reached to create the
	// index
	Failure string `json:"failure,omitempty"`
}

// NewProvisioner returns a new provisioner
func NewProvisioner(es Indexer, prefix string) *Provisioner {
	return &Provisioner{es: es, prefix: prefix, log: logger.New("ns=provisioner")}
}

// WithLogger replaces the default logger
func (p *Provisioner) WithLogger(l *logger.Logger) *Provisioner {
	p.log = l
	return p
}

// Provision creates the index for the category of the log group named in a
// CreateLogGroup event, unless it exists already.
//
// An unreachable backend during creation is reported in Result.Failure and
// does not fail the invocation. Any other backend error does.
func (p *Provisioner) Provision(ctx context.Context, ev events.CloudWatchEvent) (Result, error) {

	log := p.log.At("Provision")

	name, err := event.LogGroupName(ev.Detail)
	if err != nil {
		return Result{}, log.Error(errors.Wrap(err, "could not read log group name"))
	}

	cat := category.ForCreatedLogGroup(name)
	res := Result{
		LogGroup: name,
		Category: cat.String(),
		Index:    category.IndexName(p.prefix, cat),
	}

	log = log.Namespace("log_group=%q index=%s", name, res.Index).Start()

	exists, err := p.es.IndexExists(ctx, res.Index)
	if err != nil {
		return res, log.Error(errors.Wrap(err, "could not check index"))
	}
	if exists {
		res.Existed = true
		log.Successf("existed=true")
		return res, nil
	}

	created, err := p.es.CreateIndex(ctx, res.Index)
	if client.IsConnectionError(err) {
		res.Failure = fmt.Sprintf("failed to connect to %v", p.es.Host())
		log.Logf("state=failed failure=%q error=%q", res.Failure, err)
		return res, nil
	}
	if err != nil {
		return res, log.Error(errors.Wrap(err, "could not create index"))
	}

	res.Existed = created.AlreadyExisted
	res.Created = !created.AlreadyExisted
	res.Acknowledged = created.Acknowledged

	log.Successf("created=%t", res.Created)
	return res, nil
}
