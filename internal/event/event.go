// Package event reads the fields we need out of CloudTrail events delivered by
// EventBridge.
package event

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const logGroupNamePath = "requestParameters.logGroupName"

// LogGroupName gets the log group name from a CreateLogGroup event detail
func LogGroupName(detail json.RawMessage) (string, error) {

	if len(detail) == 0 {
		return "", errors.New("empty event detail")
	}
	if !gjson.ValidBytes(detail) {
		return "", errors.New("event detail is not valid JSON")
	}

	value := gjson.GetBytes(detail, logGroupNamePath)
	if !value.Exists() {
		return "", errors.Errorf("missing value in event detail: %v", logGroupNamePath)
	}
	if value.Type != gjson.String || value.Str == "" {
		return "", errors.Errorf("no log group name in event detail: %v", value.Raw)
	}

	return value.Str, nil
}
