package es

import (
	"context"
	"net/url"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
)

// ClusterInfoService calls the root endpoint (`GET /`), which reports
// the name of the node that answered and the cluster it belongs to.
type ClusterInfoService struct {
	client *elastic.Client
}

// NewClusterInfoService returns a new ClusterInfoService.
func NewClusterInfoService(client *elastic.Client) *ClusterInfoService {
	return &ClusterInfoService{client: client}
}

// Do executes the operation.
func (s *ClusterInfoService) Do(ctx context.Context) (*ClusterInfoResponse, error) {
	res, err := s.client.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: "GET",
		Path:   "/",
		Params: url.Values{},
	})
	if err != nil {
		return nil, err
	}
	result, err := parseBody(res)
	if err != nil {
		return nil, err
	}
	return &ClusterInfoResponse{
		Name:        result.Get("name").String(),
		ClusterName: result.Get("cluster_name").String(),
		ClusterUUID: result.Get("cluster_uuid").String(),
		Version:     result.Get("version.number").String(),
	}, nil
}

// ClusterInfoResponse is the response of the `GET /` API.
type ClusterInfoResponse struct {
	Name        string
	ClusterName string
	ClusterUUID string
	Version     string
}
