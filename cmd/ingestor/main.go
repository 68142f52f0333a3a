// Function ingestor builds a signed search client and an SQS client and hands
// over to package ingestor.
package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/convox/logger"

	"github.com/UKHomeOffice/logsync/internal/awsutil"
	"github.com/UKHomeOffice/logsync/internal/config"
	"github.com/UKHomeOffice/logsync/pkg/ingestor"
)

func main() {

	log := logger.New("ns=ingestor")

	cfg, err := config.LoadIngest()
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}

	sess := awsutil.NewSession()

	es, err := awsutil.NewSearchClient(sess, &cfg.Search)
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}

	in, err := ingestor.NewIngestor(es, cfg)
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}

	lambda.Start(in.WithDeadLetter(sqs.New(sess), cfg.FailedQueueURL).Ingest)
}
