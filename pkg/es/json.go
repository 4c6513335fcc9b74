package es

import (
	"errors"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
	"github.com/tidwall/gjson"              // Dynamic JSON parsing.
)

// ErrInvalidJSON is returned when an API responds with a body
// that can't be parsed.
var ErrInvalidJSON = errors.New("invalid json")

func parseBody(res *elastic.Response) (gjson.Result, error) {
	body, err := res.Body.MarshalJSON()
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.Valid(string(body)) {
		return gjson.Result{}, ErrInvalidJSON
	}
	return gjson.ParseBytes(body), nil
}
