package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var vars = []string{
	"TARGET_LAMBDA_FUNCTION_ARN",
	"CLOUDWATCH_FILTER_NAME",
	"CLOUDWATCH_FILTER_PATTERN",
	"SUBSCRIPTION_ROLE_ARN",
	"EXCLUDED_LOG_GROUP_PREFIXES",
	"ES_HOST",
	"ES_SERVICE_NAME",
	"ES_INDEX_PREFIX",
	"ES_TIMEOUT",
	"ES_MAX_ATTEMPTS",
	"INGEST_MODE",
	"DOCUMENT_FILTER",
	"FAILED_DOCUMENTS_QUEUE_URL",
}

// setEnv clears all known envars and sets test ones
func setEnv(env map[string]string) {
	for _, v := range vars {
		os.Unsetenv(v)
	}
	for k, v := range env {
		os.Setenv(k, v)
	}
}

func subscriptionEnv() map[string]string {
	return map[string]string{
		"TARGET_LAMBDA_FUNCTION_ARN": "arn:aws:lambda:us-east-1:111122223333:function:ingestor",
		"CLOUDWATCH_FILTER_NAME":     "sagemaker-logs",
		"CLOUDWATCH_FILTER_PATTERN":  "",
	}
}

func searchEnv() map[string]string {
	return map[string]string{
		"ES_HOST":         "abc123.us-east-1.aoss.amazonaws.com",
		"ES_SERVICE_NAME": "aoss",
		"ES_INDEX_PREFIX": "sagemaker-log",
	}
}

func TestLoadSubscription(t *testing.T) {

	tt := []struct {
		name  string
		unset string
		extra map[string]string
		want  *Subscription
		err   string
	}{
		{
			name: "happy",
			want: &Subscription{
				DestinationArn: "arn:aws:lambda:us-east-1:111122223333:function:ingestor",
				FilterName:     "sagemaker-logs",
			},
		},
		{
			name: "optional values",
			extra: map[string]string{
				"CLOUDWATCH_FILTER_PATTERN":   "[ type = task*, uname, ... ]",
				"SUBSCRIPTION_ROLE_ARN":       "arn:aws:iam::111122223333:role/cwl",
				"EXCLUDED_LOG_GROUP_PREFIXES": "/aws/lambda/logsync-, ,/aws/lambda/other",
			},
			want: &Subscription{
				DestinationArn:   "arn:aws:lambda:us-east-1:111122223333:function:ingestor",
				FilterName:       "sagemaker-logs",
				FilterPattern:    "[ type = task*, uname, ... ]",
				RoleArn:          "arn:aws:iam::111122223333:role/cwl",
				ExcludedPrefixes: []string{"/aws/lambda/logsync-", "/aws/lambda/other"},
			},
		},
		{name: "no destination", unset: "TARGET_LAMBDA_FUNCTION_ARN", err: "missing environment variable: TARGET_LAMBDA_FUNCTION_ARN"},
		{name: "no filter name", unset: "CLOUDWATCH_FILTER_NAME", err: "missing environment variable: CLOUDWATCH_FILTER_NAME"},
		{name: "no filter pattern", unset: "CLOUDWATCH_FILTER_PATTERN", err: "missing environment variable: CLOUDWATCH_FILTER_PATTERN"},
		{name: "blank destination", extra: map[string]string{"TARGET_LAMBDA_FUNCTION_ARN": " "}, err: "empty environment variable"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			env := subscriptionEnv()
			delete(env, tc.unset)
			for k, v := range tc.extra {
				env[k] = v
			}
			setEnv(env)

			got, err := LoadSubscription()
			if tc.err != "" {
				if err == nil {
					t.Fatalf("expected error %q, got none", tc.err)
				}
				if msg := err.Error(); !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("unexpected config (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadSearch(t *testing.T) {

	tt := []struct {
		name  string
		unset string
		extra map[string]string
		want  *Search
		err   string
	}{
		{
			name: "defaults",
			want: &Search{
				Host:        "abc123.us-east-1.aoss.amazonaws.com",
				Service:     "aoss",
				IndexPrefix: "sagemaker-log",
				Timeout:     10 * time.Second,
				MaxAttempts: 3,
			},
		},
		{
			name:  "overrides",
			extra: map[string]string{"ES_TIMEOUT": "2s", "ES_MAX_ATTEMPTS": "5"},
			want: &Search{
				Host:        "abc123.us-east-1.aoss.amazonaws.com",
				Service:     "aoss",
				IndexPrefix: "sagemaker-log",
				Timeout:     2 * time.Second,
				MaxAttempts: 5,
			},
		},
		{name: "no host", unset: "ES_HOST", err: "missing environment variable: ES_HOST"},
		{name: "no service", unset: "ES_SERVICE_NAME", err: "missing environment variable: ES_SERVICE_NAME"},
		{name: "no prefix", unset: "ES_INDEX_PREFIX", err: "missing environment variable: ES_INDEX_PREFIX"},
		{name: "bad timeout", extra: map[string]string{"ES_TIMEOUT": "soon"}, err: "invalid ES_TIMEOUT"},
		{name: "bad attempts", extra: map[string]string{"ES_MAX_ATTEMPTS": "0"}, err: "invalid ES_MAX_ATTEMPTS"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			env := searchEnv()
			delete(env, tc.unset)
			for k, v := range tc.extra {
				env[k] = v
			}
			setEnv(env)

			got, err := LoadSearch()
			if tc.err != "" {
				if err == nil {
					t.Fatalf("expected error %q, got none", tc.err)
				}
				if msg := err.Error(); !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("unexpected config (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadIngest(t *testing.T) {

	tt := []struct {
		name       string
		extra      map[string]string
		wantMode   string
		wantFilter string
		wantQueue  string
		err        string
	}{
		{name: "default mode", wantMode: ModeSingle},
		{name: "bulk", extra: map[string]string{"INGEST_MODE": "bulk"}, wantMode: ModeBulk},
		{name: "bad mode", extra: map[string]string{"INGEST_MODE": "parallel"}, err: "invalid INGEST_MODE"},
		{
			name: "filter and queue",
			extra: map[string]string{
				"DOCUMENT_FILTER":            " contains(message, 'ERROR') ",
				"FAILED_DOCUMENTS_QUEUE_URL": "https://sqs.us-east-1.amazonaws.com/111122223333/failed",
			},
			wantMode:   ModeSingle,
			wantFilter: "contains(message, 'ERROR')",
			wantQueue:  "https://sqs.us-east-1.amazonaws.com/111122223333/failed",
		},
		{name: "search error", extra: map[string]string{"ES_HOST": ""}, err: "empty environment variable: ES_HOST"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			env := searchEnv()
			for k, v := range tc.extra {
				env[k] = v
			}
			setEnv(env)

			got, err := LoadIngest()
			if tc.err != "" {
				if err == nil {
					t.Fatalf("expected error %q, got none", tc.err)
				}
				if msg := err.Error(); !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Mode != tc.wantMode {
				t.Errorf("expected mode %v, got %v", tc.wantMode, got.Mode)
			}
			if got.DocumentFilter != tc.wantFilter {
				t.Errorf("expected filter %q, got %q", tc.wantFilter, got.DocumentFilter)
			}
			if got.FailedQueueURL != tc.wantQueue {
				t.Errorf("expected queue %q, got %q", tc.wantQueue, got.FailedQueueURL)
			}
			if got.IndexPrefix != "sagemaker-log" {
				t.Errorf("expected embedded search config, got %+v", got.Search)
			}
		})
	}
}

func TestEndpoint(t *testing.T) {

	tt := []struct {
		host string
		want string
		err  bool
	}{
		{host: "abc123.us-east-1.aoss.amazonaws.com", want: "https://abc123.us-east-1.aoss.amazonaws.com:443"},
		{host: "search.local:9200", want: "https://search.local:9200"},
		{host: "http://127.0.0.1:9200/", want: "http://127.0.0.1:9200"},
		{host: "https://", err: true},
	}

	for _, tc := range tt {
		t.Run(tc.host, func(t *testing.T) {
			s := &Search{Host: tc.host}
			u, err := s.Endpoint()
			if tc.err {
				if err == nil {
					t.Errorf("expected error for %q", tc.host)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.String() != tc.want {
				t.Errorf("expected %v, got %v", tc.want, u.String())
			}
		})
	}
}
