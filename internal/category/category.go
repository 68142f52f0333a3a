// Package category decides whether a SageMaker log group carries training or
// inference logs, and names the search index for each.
package category

import "strings"

// Category is the log_type of a document and the suffix of its index
type Category string

const (
	// Training logs come from SageMaker training jobs
	Training Category = "training"
	// Inference logs come from SageMaker endpoints
	Inference Category = "inference"
)

const (
	trainingJobsMarker = "sagemaker/TrainingJobs"
	endpointsMarker    = "sagemaker/Endpoints/"
)

// ForCreatedLogGroup classifies a newly created log group.
// Anything that is not a training job log group, malformed names included,
// is treated as inference.
func ForCreatedLogGroup(name string) Category {
	if strings.Contains(name, trainingJobsMarker) {
		return Training
	}
	return Inference
}

// ForDeliveredLogGroup classifies the log group of a delivered batch.
// Anything that is not an endpoint log group is treated as training, which is
// the opposite default of ForCreatedLogGroup.
func ForDeliveredLogGroup(name string) Category {
	if strings.Contains(name, endpointsMarker) {
		return Inference
	}
	return Training
}

// IndexName returns the index holding documents of category c
func IndexName(prefix string, c Category) string {
	return prefix + "-" + string(c)
}

func (c Category) String() string {
	return string(c)
}
