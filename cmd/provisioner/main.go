// Function provisioner builds a signed search client and hands over to package provisioner.
package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/convox/logger"

	"github.com/UKHomeOffice/logsync/internal/awsutil"
	"github.com/UKHomeOffice/logsync/internal/config"
	"github.com/UKHomeOffice/logsync/pkg/provisioner"
)

func main() {

	log := logger.New("ns=provisioner")

	cfg, err := config.LoadSearch()
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}

	es, err := awsutil.NewSearchClient(awsutil.NewSession(), cfg)
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}

	lambda.Start(provisioner.NewProvisioner(es, cfg.IndexPrefix).Provision)
}
