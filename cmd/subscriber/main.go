// Function subscriber starts a CloudWatch Logs session and hands over to package subscriber.
package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/convox/logger"

	"github.com/UKHomeOffice/logsync/internal/awsutil"
	"github.com/UKHomeOffice/logsync/internal/config"
	"github.com/UKHomeOffice/logsync/pkg/subscriber"
)

func main() {

	log := logger.New("ns=subscriber")

	cfg, err := config.LoadSubscription()
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}

	cwl := cloudwatchlogs.New(awsutil.NewSession())

	lambda.Start(subscriber.NewSubscriber(cwl, cfg).Subscribe)
}
