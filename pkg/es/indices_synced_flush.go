package es

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
)

// SyncedFlushService issues `POST /_flush/synced`, which flushes
// the transaction log of idle shards and marks them with a sync id
// so they recover quickly after a restart.
//
// Elasticsearch answers 409 Conflict when some shards couldn't be
// synced. That's reported through SyncedFlushResponse.Failed rather
// than as an error.
type SyncedFlushService struct {
	client  *elastic.Client
	indices []string
}

// NewSyncedFlushService creates a new SyncedFlushService.
func NewSyncedFlushService(client *elastic.Client) *SyncedFlushService {
	return &SyncedFlushService{client: client}
}

// Index limits the flush to the given indices. Default is all indices.
func (s *SyncedFlushService) Index(indices ...string) *SyncedFlushService {
	s.indices = append(s.indices, indices...)
	return s
}

func (s *SyncedFlushService) buildURL() (string, url.Values) {
	path := "/_flush/synced"
	if len(s.indices) > 0 {
		escaped := make([]string, len(s.indices))
		for i, idx := range s.indices {
			escaped[i] = url.PathEscape(idx)
		}
		path = "/" + strings.Join(escaped, ",") + path
	}
	return path, url.Values{}
}

// Do executes the operation.
func (s *SyncedFlushService) Do(ctx context.Context) (*SyncedFlushResponse, error) {
	path, params := s.buildURL()
	res, err := s.client.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method:       "POST",
		Path:         path,
		Params:       params,
		IgnoreErrors: []int{http.StatusConflict},
	})
	if err != nil {
		return nil, err
	}
	result, err := parseBody(res)
	if err != nil {
		return nil, err
	}
	return &SyncedFlushResponse{
		StatusCode: res.StatusCode,
		Total:      int(result.Get("_shards.total").Int()),
		Successful: int(result.Get("_shards.successful").Int()),
		Failed:     int(result.Get("_shards.failed").Int()),
	}, nil
}

// SyncedFlushResponse summarizes the `_shards` section of a synced flush response.
type SyncedFlushResponse struct {
	StatusCode int
	Total      int
	Successful int
	Failed     int
}
