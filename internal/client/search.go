package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	jsonContent   = "application/json"
	ndjsonContent = "application/x-ndjson"
)

// CreateResult is the outcome of an index creation
type CreateResult struct {
	Index        string `json:"index"`
	Acknowledged bool   `json:"acknowledged"`
	// AlreadyExisted is set when another writer created the index first
	AlreadyExisted bool `json:"already_existed,omitempty"`
}

// IndexResult is the outcome of writing one document
type IndexResult struct {
	Index   string `json:"_index"`
	ID      string `json:"_id"`
	Result  string `json:"result"`
	Version int64  `json:"_version"`
}

// BulkItem is one document in a bulk request
type BulkItem struct {
	Index    string
	ID       string
	Document interface{}
}

// BulkItemResult is the outcome of one bulk item
type BulkItemResult struct {
	Index  string
	ID     string
	Status int
	Result string
	Error  *BackendError
}

// BulkResult is the outcome of a bulk request
type BulkResult struct {
	Took   int64
	Errors bool
	Items  []BulkItemResult
}

// call sends one request, retrying under the client policy. Any status
// outside 2xx and accept is returned as a BackendError.
func (c *Client) call(ctx context.Context, method, path, contentType string, body []byte, accept ...int) (int, []byte, error) {

	var status int
	var out []byte

	err := c.policy().Do(ctx, func() error {

		req, err := c.NewRequest(ctx, method, path, contentType, body)
		if err != nil {
			return errors.Wrap(err, "could not make request")
		}

		res, err := c.Do(req)
		if err != nil {
			c.logger().At(method).Logf("path=%q retryable=true error=%q", path, err)
			return err
		}
		defer res.Body.Close()

		out, err = ioutil.ReadAll(res.Body)
		if err != nil {
			return &ConnectionError{Host: req.URL.Host, Err: err}
		}
		status = res.StatusCode

		if status >= 200 && status < 300 {
			return nil
		}
		for _, a := range accept {
			if status == a {
				return nil
			}
		}

		be := newBackendError(status, out)
		if IsRetryable(be) {
			c.logger().At(method).Logf("path=%q status=%d retryable=true", path, status)
		}
		return be
	})

	return status, out, err
}

func indexPath(index string) string {
	return "/" + url.PathEscape(index)
}

// IndexExists checks whether an index exists
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {

	log := c.logger().At("IndexExists").Namespace("index=%s", index).Start()

	status, _, err := c.call(ctx, http.MethodHead, indexPath(index), "", nil, http.StatusNotFound)
	if err != nil {
		return false, log.Error(err)
	}

	exists := status != http.StatusNotFound
	log.Successf("exists=%t", exists)
	return exists, nil
}

// CreateIndex creates an index with the backend's default settings. An
// index created concurrently by someone else is not an error.
func (c *Client) CreateIndex(ctx context.Context, index string) (*CreateResult, error) {

	log := c.logger().At("CreateIndex").Namespace("index=%s", index).Start()

	_, out, err := c.call(ctx, http.MethodPut, indexPath(index), "", nil)
	if IsAlreadyExists(err) {
		log.Successf("already_existed=true")
		return &CreateResult{Index: index, Acknowledged: true, AlreadyExisted: true}, nil
	}
	if err != nil {
		return nil, log.Error(err)
	}

	res := &CreateResult{Index: index}
	if err := json.Unmarshal(out, res); err != nil {
		return nil, log.Error(errors.Wrap(err, "could not decode create index response"))
	}
	if res.Index == "" {
		res.Index = index
	}

	log.Successf("acknowledged=%t", res.Acknowledged)
	return res, nil
}

// EnsureIndex creates index unless it already exists, and reports whether
// this call created it
func (c *Client) EnsureIndex(ctx context.Context, index string) (bool, error) {

	exists, err := c.IndexExists(ctx, index)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	res, err := c.CreateIndex(ctx, index)
	if err != nil {
		return false, err
	}
	return !res.AlreadyExisted, nil
}

// Index writes one document under id, replacing any document with the same
// id. The write does not wait for a refresh.
func (c *Client) Index(ctx context.Context, index, id string, doc interface{}) (*IndexResult, error) {

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal document")
	}

	path := indexPath(index) + "/_doc/" + url.PathEscape(id) + "?refresh=false"

	_, out, err := c.call(ctx, http.MethodPut, path, jsonContent, body)
	if err != nil {
		return nil, errors.Wrapf(err, "could not index document %v", id)
	}

	var res IndexResult
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, errors.Wrap(err, "could not decode index response")
	}

	if res.Result != "created" && res.Result != "updated" {
		return nil, errors.Errorf("unexpected result indexing document %v: %q", id, res.Result)
	}

	return &res, nil
}

// Bulk writes all items in one request. Every item uses the index action so
// a repeated id replaces the earlier document, as Index does.
func (c *Client) Bulk(ctx context.Context, items []BulkItem) (*BulkResult, error) {

	log := c.logger().At("Bulk").Namespace("items=%d", len(items)).Start()

	if len(items) == 0 {
		return &BulkResult{}, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, it := range items {
		action := map[string]map[string]string{
			"index": {"_index": it.Index, "_id": it.ID},
		}
		if err := enc.Encode(action); err != nil {
			return nil, log.Error(errors.Wrap(err, "could not marshal bulk action"))
		}
		if err := enc.Encode(it.Document); err != nil {
			return nil, log.Error(errors.Wrapf(err, "could not marshal document %v", it.ID))
		}
	}

	_, out, err := c.call(ctx, http.MethodPost, "/_bulk?refresh=false", ndjsonContent, buf.Bytes())
	if err != nil {
		return nil, log.Error(errors.Wrap(err, "bulk request failed"))
	}

	res := parseBulk(out)
	if len(res.Items) != len(items) {
		return nil, log.Error(errors.Errorf("bulk response has %d items, sent %d", len(res.Items), len(items)))
	}

	log.Successf("errors=%t", res.Errors)
	return res, nil
}

func parseBulk(body []byte) *BulkResult {

	res := &BulkResult{
		Took:   gjson.GetBytes(body, "took").Int(),
		Errors: gjson.GetBytes(body, "errors").Bool(),
	}

	gjson.GetBytes(body, "items").ForEach(func(_, item gjson.Result) bool {
		// each item is keyed by its action name
		item.ForEach(func(_, op gjson.Result) bool {
			r := BulkItemResult{
				Index:  op.Get("_index").String(),
				ID:     op.Get("_id").String(),
				Status: int(op.Get("status").Int()),
				Result: op.Get("result").String(),
			}
			if e := op.Get("error"); e.Exists() {
				r.Error = &BackendError{
					StatusCode: r.Status,
					Type:       e.Get("type").String(),
					Reason:     e.Get("reason").String(),
				}
			}
			res.Items = append(res.Items, r)
			return false
		})
		return true
	})

	return res
}
