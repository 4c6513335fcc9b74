package es

import (
	"context"
	"net/url"
	"strings"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
	"github.com/tidwall/gjson"              // Dynamic JSON parsing.
)

// ClusterGetSettingsService gets the settings of an Elasticsearch cluster.
// github.com/olivere/elastic doesn't have this.
type ClusterGetSettingsService struct {
	client          *elastic.Client
	includeDefaults bool
	flatSettings    bool
	filterPath      []string
}

// NewClusterGetSettingsService returns a new ClusterGetSettingsService.
func NewClusterGetSettingsService(client *elastic.Client) *ClusterGetSettingsService {
	return &ClusterGetSettingsService{client: client}
}

// Defaults indicates if Elasticsearch should include default settings values in the response.
func (s *ClusterGetSettingsService) Defaults(include bool) *ClusterGetSettingsService {
	s.includeDefaults = include
	return s
}

// FlatSettings requests settings keyed by their full dotted name
// instead of as nested objects.
func (s *ClusterGetSettingsService) FlatSettings(flat bool) *ClusterGetSettingsService {
	s.flatSettings = flat
	return s
}

// FilterPath allows reducing the response, a mechanism known as
// response filtering and described here:
// https://www.elastic.co/guide/en/elasticsearch/reference/7.0/common-options.html#common-options-response-filtering.
func (s *ClusterGetSettingsService) FilterPath(filterPath ...string) *ClusterGetSettingsService {
	s.filterPath = append(s.filterPath, filterPath...)
	return s
}

func (s *ClusterGetSettingsService) buildURL() (string, url.Values) {
	params := url.Values{}
	if s.includeDefaults {
		params.Set("include_defaults", "true")
	}
	if s.flatSettings {
		params.Set("flat_settings", "true")
	}
	if len(s.filterPath) > 0 {
		params.Set("filter_path", strings.Join(s.filterPath, ","))
	}
	return "/_cluster/settings", params
}

// Do executes the operation.
func (s *ClusterGetSettingsService) Do(ctx context.Context) (*ClusterGetSettingsResponse, error) {
	path, params := s.buildURL()
	res, err := s.client.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: "GET",
		Path:   path,
		Params: params,
	})
	if err != nil {
		return nil, err
	}
	result, err := parseBody(res)
	if err != nil {
		return nil, err
	}
	ret := &ClusterGetSettingsResponse{
		Persistent: result.Get("persistent"),
		Transient:  result.Get("transient"),
	}
	if s.includeDefaults {
		ret.Defaults = result.Get("defaults")
	}
	return ret, nil
}

// ClusterGetSettingsResponse represents the response from the Elasticsearch
// `GET /_cluster/settings` API.
type ClusterGetSettingsResponse struct {
	Persistent gjson.Result
	Transient  gjson.Result
	Defaults   gjson.Result
}
