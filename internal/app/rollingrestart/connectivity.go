package rollingrestart

import (
	"context"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
	"go.uber.org/zap"                       // Logging.

	"github.com/mintel/elasticsearch-rolling/pkg/ctxlog" // Logger from context.
	"github.com/mintel/elasticsearch-rolling/pkg/es"     // Extensions to the Elasticsearch client.
)

// HostStatus is the result of checking one host.
type HostStatus struct {
	Host string

	// Info is set if the host's Elasticsearch API answered.
	Info *es.ClusterInfoResponse

	// Running is set by TestService.
	Running bool

	Err error
}

// CheckConnectivity asks the Elasticsearch API of every host who it is.
// Failures are logged and reported, not returned.
func CheckConnectivity(ctx context.Context, conn es.ConnectionConfig, hosts []string, opts ...elastic.ClientOptionFunc) []HostStatus {
	statuses := make([]HostStatus, 0, len(hosts))
	for _, host := range hosts {
		if ctx.Err() != nil {
			break
		}
		logger := ctxlog.L(ctx).With(zap.String(ctxlog.HostField, host))
		status := HostStatus{Host: host}
		client, err := es.NewHostClient(conn, conn.URL(host), opts...)
		if err == nil {
			status.Info, err = NewElasticsearchFacade(client).Info(ctx)
		}
		if err != nil {
			status.Err = err
			logger.Error("couldn't reach Elasticsearch", zap.Error(err))
		} else {
			logger.Info("Elasticsearch is reachable",
				zap.String("cluster_name", status.Info.ClusterName),
				zap.String("cluster_uuid", status.Info.ClusterUUID),
				zap.String("version", status.Info.Version),
				zap.String("node_name", status.Info.Name))
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// TestService reports whether service is running on every host.
// Failures are logged and reported, not returned.
func TestService(ctx context.Context, executor NodeExecutor, service string, hosts []string) []HostStatus {
	statuses := make([]HostStatus, 0, len(hosts))
	for _, host := range hosts {
		if ctx.Err() != nil {
			break
		}
		logger := ctxlog.L(ctx).With(zap.String(ctxlog.HostField, host), zap.String("service", service))
		status := HostStatus{Host: host}
		status.Running, status.Err = executor.IsServiceRunning(ctx, host, service)
		if status.Err != nil {
			logger.Error("couldn't check service", zap.Error(status.Err))
		} else {
			logger.Info("checked service", zap.Bool("running", status.Running))
		}
		statuses = append(statuses, status)
	}
	return statuses
}
