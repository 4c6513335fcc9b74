package es

import (
	"context"
	"net/url"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
	"github.com/tidwall/gjson"              // Dynamic JSON parsing.
)

// ClusterPutSettingsService updates the settings of an Elasticsearch cluster.
type ClusterPutSettingsService struct {
	client        *elastic.Client
	masterTimeout string
	transient     map[string]interface{}
	persistent    map[string]interface{}
}

// NewClusterPutSettingsService returns a new ClusterPutSettingsService.
func NewClusterPutSettingsService(client *elastic.Client) *ClusterPutSettingsService {
	return &ClusterPutSettingsService{
		client:     client,
		transient:  make(map[string]interface{}),
		persistent: make(map[string]interface{}),
	}
}

// Transient adds a transient setting to the request.
// A nil value resets the setting to its default.
func (s *ClusterPutSettingsService) Transient(setting string, value interface{}) *ClusterPutSettingsService {
	s.transient[setting] = value
	return s
}

// Persistent adds a persistent setting to the request.
func (s *ClusterPutSettingsService) Persistent(setting string, value interface{}) *ClusterPutSettingsService {
	s.persistent[setting] = value
	return s
}

// MasterTimeout is the timeout for connection to master.
func (s *ClusterPutSettingsService) MasterTimeout(masterTimeout string) *ClusterPutSettingsService {
	s.masterTimeout = masterTimeout
	return s
}

// body only includes the sections that have settings, so that
// a transient-only update is exactly {"transient": {...}}.
func (s *ClusterPutSettingsService) body() map[string]interface{} {
	body := make(map[string]interface{}, 2)
	if len(s.persistent) > 0 {
		body["persistent"] = s.persistent
	}
	if len(s.transient) > 0 {
		body["transient"] = s.transient
	}
	return body
}

// Do executes the operation.
func (s *ClusterPutSettingsService) Do(ctx context.Context) (*ClusterPutSettingsResponse, error) {
	params := url.Values{}
	if s.masterTimeout != "" {
		params.Set("master_timeout", s.masterTimeout)
	}
	res, err := s.client.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: "PUT",
		Path:   "/_cluster/settings",
		Params: params,
		Body:   s.body(),
	})
	if err != nil {
		return nil, err
	}
	result, err := parseBody(res)
	if err != nil {
		return nil, err
	}
	return &ClusterPutSettingsResponse{
		Acknowledged: result.Get("acknowledged").Bool(),
		Persistent:   result.Get("persistent"),
		Transient:    result.Get("transient"),
	}, nil
}

// ClusterPutSettingsResponse represents the response from the Elasticsearch
// `PUT /_cluster/settings` API. It contains the new values of the changed settings.
type ClusterPutSettingsResponse struct {
	// Acknowledged is true if the master accepted the change.
	Acknowledged bool

	// Persistent holds the Elasticsearch settings that persist between cluster restarts.
	Persistent gjson.Result

	// Transient holds the Elasticsearch settings that do not persist between cluster restarts.
	Transient gjson.Result
}
