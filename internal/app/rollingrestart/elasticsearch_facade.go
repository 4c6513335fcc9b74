package rollingrestart

import (
	"context"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
	"github.com/pkg/errors"                 // Wrap errors with stacktrace.
	"go.uber.org/zap"                       // Logging.

	"github.com/mintel/elasticsearch-rolling/pkg/ctxlog" // Logger from context.
	"github.com/mintel/elasticsearch-rolling/pkg/es"     // Extensions to the Elasticsearch client.
)

// ElasticsearchFacadeIface is an interface for Elasticsearch
// so it can be mocked during tests.
type ElasticsearchFacadeIface interface {
	Info(context.Context) (*es.ClusterInfoResponse, error)
	GetAllocation(context.Context) (setting es.AllocationSetting, ok bool, err error)
	PutAllocation(context.Context, es.AllocationMode) (*AllocationChange, error)
	FlushSynced(context.Context) (*es.SyncedFlushResponse, error)
	NodePresent(ctx context.Context, name string) (bool, error)
	Health(context.Context) (*ClusterHealth, error)
}

// ClusterHealth is the part of the cluster health API response
// that gates a rolling restart.
type ClusterHealth struct {
	ClusterName      string
	Status           string
	NumberOfNodes    int
	UnassignedShards int
}

// Green reports whether every shard is allocated.
func (h *ClusterHealth) Green() bool {
	return h != nil && h.Status == "green"
}

// AllocationChange is the result of updating the allocation setting.
type AllocationChange struct {
	// Acknowledged is true if the master accepted the change.
	Acknowledged bool

	// Setting is the new value as echoed back in the response.
	// Reported is false if the response didn't include it.
	Setting  es.AllocationSetting
	Reported bool
}

// ElasticsearchFacade provides a facade for the rolling restart's
// interactions with the Elasticsearch API.
// Each method makes a single request. Retrying is up to the caller.
type ElasticsearchFacade struct {
	c *elastic.Client
}

var _ ElasticsearchFacadeIface = (*ElasticsearchFacade)(nil) // Assert ElasticsearchFacade implements the ElasticsearchFacadeIface interface.

// NewElasticsearchFacade returns a new ElasticsearchFacade.
func NewElasticsearchFacade(c *elastic.Client) *ElasticsearchFacade {
	return &ElasticsearchFacade{
		c: c,
	}
}

// Info returns the identity of the node answering API requests.
func (e *ElasticsearchFacade) Info(ctx context.Context) (*es.ClusterInfoResponse, error) {
	resp, err := es.NewClusterInfoService(e.c).Do(ctx)
	return resp, errors.Wrap(err, "error getting cluster info")
}

// GetAllocation returns the current shard allocation setting.
// Transient settings take precedence over persistent ones, the same
// as in Elasticsearch. ok is false if neither sets it.
func (e *ElasticsearchFacade) GetAllocation(ctx context.Context) (es.AllocationSetting, bool, error) {
	resp, err := es.NewClusterGetSettingsService(e.c).Do(ctx)
	if err != nil {
		return es.AllocationSetting{}, false, errors.Wrap(err, "error getting cluster settings")
	}
	if s, ok := es.NewAllocationSetting(resp.Transient); ok {
		return s, true, nil
	}
	s, ok := es.NewAllocationSetting(resp.Persistent)
	return s, ok, nil
}

// PutAllocation sets the transient shard allocation setting.
func (e *ElasticsearchFacade) PutAllocation(ctx context.Context, mode es.AllocationMode) (*AllocationChange, error) {
	resp, err := es.NewClusterPutSettingsService(e.c).
		Transient(es.AllocationEnableSetting, string(mode)).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "error setting %s to %s", es.AllocationEnableSetting, mode)
	}
	c := &AllocationChange{Acknowledged: resp.Acknowledged}
	c.Setting, c.Reported = es.NewAllocationSetting(resp.Transient)
	return c, nil
}

// FlushSynced requests a synced flush of all indices.
// Shard level failures are reported in the response, not as an error.
func (e *ElasticsearchFacade) FlushSynced(ctx context.Context) (*es.SyncedFlushResponse, error) {
	resp, err := es.NewSyncedFlushService(e.c).Do(ctx)
	return resp, errors.Wrap(err, "error requesting synced flush")
}

// NodePresent reports whether the node listing contains name.
func (e *ElasticsearchFacade) NodePresent(ctx context.Context, name string) (bool, error) {
	resp, err := es.NewCatNodesService(e.c).Do(ctx)
	if err != nil {
		return false, errors.Wrap(err, "error listing nodes")
	}
	if !resp.Contains(name) {
		return false, nil
	}
	if !containsString(resp.Names(), name) {
		ctxlog.L(ctx).Debug("node matched by substring only",
			zap.String("node", name),
			zap.Strings("nodes", resp.Names()))
	}
	return true, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Health returns the cluster health.
func (e *ElasticsearchFacade) Health(ctx context.Context) (*ClusterHealth, error) {
	resp, err := e.c.ClusterHealth().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cluster health")
	}
	return &ClusterHealth{
		ClusterName:      resp.ClusterName,
		Status:           resp.Status,
		NumberOfNodes:    resp.NumberOfNodes,
		UnassignedShards: resp.UnassignedShards,
	}, nil
}
