package ingestor

import (
	"encoding/json"
	"reflect"

	"github.com/jmespath/go-jmespath"
	"github.com/pkg/errors"
)

// Filter decides which documents are indexed using a JMESPath expression
// evaluated against the document JSON, for example
// contains(message, 'ERROR') or log_type == 'inference'
type Filter struct {
	expr string
	jp   *jmespath.JMESPath
}

// NewFilter compiles expr. An empty expression gives a nil filter, which
// keeps everything.
func NewFilter(expr string) (*Filter, error) {

	if expr == "" {
		return nil, nil
	}

	jp, err := jmespath.Compile(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid document filter %q", expr)
	}

	return &Filter{expr: expr, jp: jp}, nil
}

// Keep reports whether doc should be indexed
func (f *Filter) Keep(doc Document) (bool, error) {

	if f == nil {
		return true, nil
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return false, errors.Wrap(err, "could not marshal document")
	}
	var input interface{}
	if err := json.Unmarshal(b, &input); err != nil {
		return false, errors.Wrap(err, "could not unmarshal document")
	}

	res, err := f.jp.Search(input)
	if err != nil {
		return false, errors.Wrapf(err, "could not evaluate %q", f.expr)
	}

	return truthy(res), nil
}

// truthy follows JMESPath: false, null, empty strings, arrays and objects
// are false
func truthy(v interface{}) bool {

	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	}
	return true
}
