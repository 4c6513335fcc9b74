package rollingrestart

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"                         // Run identifiers.
	elastic "github.com/olivere/elastic/v7"          // Elasticsearch client.
	"github.com/pkg/errors"                          // Wrap errors with stacktrace.
	"github.com/prometheus/client_golang/prometheus" // Prometheus metrics.
	"go.uber.org/zap"                                // Logging.
	"golang.org/x/sync/errgroup"                     // Cancel multiple goroutines if one fails.
	kingpin "gopkg.in/alecthomas/kingpin.v2"         // Command line flag parsing.

	"github.com/mintel/elasticsearch-rolling/internal/pkg/cmd"     // Common command line app tools.
	"github.com/mintel/elasticsearch-rolling/internal/pkg/metrics" // Prometheus metrics tools.
	"github.com/mintel/elasticsearch-rolling/internal/pkg/remote"  // SSH command execution.
	"github.com/mintel/elasticsearch-rolling/pkg/ctxlog"           // Logger from context.
	"github.com/mintel/elasticsearch-rolling/pkg/es"               // Extensions to the Elasticsearch client.
)

const (
	Name  = "rollingrestart"
	Usage = "Restart or reboot Elasticsearch nodes, or hosts running some other service, one at a time."
)

// App holds application state.
type App struct {
	*kingpin.Application

	flags  *Flags           // Command line flags
	health *Healthchecks    // healthchecks HTTP handler
	inst   *Instrumentation // App-specific Prometheus metrics
	reg    prometheus.Registerer

	// API clients.
	clients struct {
		ElasticsearchHTTP *http.Client
	}
}

// NewApp returns a new App.
func NewApp(r prometheus.Registerer) (*App, error) {
	app := &App{
		Application: kingpin.New(filepath.Base(os.Args[0]), Usage),
		health:      NewHealthchecks(r),
		reg:         r,
	}
	app.flags = NewFlags(app.Application)
	app.inst = NewInstrumentation(metrics.Namespace)
	if err := r.Register(app.inst); err != nil {
		return nil, err
	}

	// Instrument the HTTP client used for Elasticsearch.
	// Don't create the Elasticsearch client here: errors returned from
	// actions are printed as if they were usage errors.
	app.Action(func(*kingpin.ParseContext) error {
		base := app.flags.ConnectionConfig(nil).HTTPClient()
		constLabels := map[string]string{"recipient": "elasticsearch"}
		c, err := metrics.InstrumentHTTP(base, r, constLabels)
		if err != nil {
			panic("error instrumenting HTTP client: " + err.Error())
		}
		app.clients.ElasticsearchHTTP = c
		return nil
	})

	return app, nil
}

// Main is the main method of App and should be called
// in main.main() after flag parsing.
func (app *App) Main(g prometheus.Gatherer) {
	logger := app.flags.NewLogger()
	defer func() { _ = logger.Sync() }()
	defer cmd.SetGlobalLogger(logger)()

	ctx := ctxlog.WithLogger(context.Background(), logger)
	ctx = ctxlog.WithRunID(ctx, uuid.New().String())
	ctx, cancel := cmd.WithInterrupt(ctx)
	defer cancel()

	// The monitoring server lives as long as the run.
	ctx, stop := context.WithCancel(ctx)
	eg, ctx := errgroup.WithContext(ctx)

	if app.flags.ServerFlags.Enabled() {
		eg.Go(func() error {
			mux := app.flags.ConfigureMux(http.NewServeMux(), app.health.Handler, g)
			err := cmd.Serve(ctx, app.flags.NewServer(mux))
			return errors.Wrap(err, "error serving healthchecks/metrics")
		})
	}

	eg.Go(func() error {
		defer stop()
		return app.run(ctx)
	})

	if err := eg.Wait(); err != nil {
		ctxlog.L(ctx).Fatal("run failed", zap.String("command", app.flags.Command), zap.Error(err))
	}
}

// run executes the selected command.
func (app *App) run(ctx context.Context) error {
	logger := ctxlog.L(ctx)

	src, err := app.flags.Source(app.reg)
	if err != nil {
		return err
	}
	hosts, err := src.Hosts(ctx)
	if err != nil {
		return errors.Wrap(err, "error loading hosts")
	}
	app.health.InventoryLoaded.Store(true)
	logger.Info("loaded hosts", zap.Strings("hosts", hosts))

	switch app.flags.Command {
	case CommandCheckConnectivity:
		app.health.ExecutorCreated.Store(true)
		app.health.ElasticsearchReady.Store(true)
		CheckConnectivity(ctx, app.flags.ConnectionConfig(hosts), hosts,
			elastic.SetHttpClient(app.clients.ElasticsearchHTTP))
		return nil

	case CommandTestService:
		app.health.ElasticsearchReady.Store(true)
		executor, err := app.newExecutor()
		if err != nil {
			return err
		}
		defer executor.Close()
		TestService(ctx, remote.NewSystemd(executor), app.flags.TargetService, hosts)
		return nil
	}

	mode := MaintenanceMode(app.flags.Command)
	var cluster ElasticsearchFacadeIface
	if mode.TouchesCluster() {
		c, err := es.NewClient(app.flags.ConnectionConfig(hosts),
			elastic.SetHttpClient(app.clients.ElasticsearchHTTP))
		if err != nil {
			return err
		}
		cluster = NewElasticsearchFacade(c)
	}
	app.health.ElasticsearchReady.Store(true)

	executor, err := app.newExecutor()
	if err != nil {
		return err
	}
	defer executor.Close()

	o := NewRollingOrchestrator(app.flags.MaintenanceConfig(mode), cluster, remote.NewSystemd(executor), app.inst)
	nodes := NewNodes(hosts, HostContains(app.flags.DataMarker))
	reports, err := o.Run(ctx, nodes, mode)
	logReports(ctx, reports)
	return err
}

func (app *App) newExecutor() (*remote.Executor, error) {
	executor, err := app.flags.NewExecutor()
	if err != nil {
		return nil, errors.Wrap(err, "error creating SSH executor")
	}
	app.health.ExecutorCreated.Store(true)
	return executor, nil
}

// logReports logs a summary line per processed node.
func logReports(ctx context.Context, reports []NodeReport) {
	logger := ctxlog.L(ctx)
	for _, r := range reports {
		fields := []zap.Field{
			zap.String(ctxlog.HostField, r.Node.Host),
			zap.String("role", string(r.Node.Role)),
			zap.String("state", r.State),
			zap.Duration("duration", r.Duration),
		}
		if r.HasAllocationAfter {
			fields = append(fields,
				zap.String("allocation_before", string(effectiveAllocation(r.AllocationBefore, r.HasAllocationBefore))),
				zap.Stringer("allocation_after", r.AllocationAfter))
		}
		if r.Err != nil {
			fields = append(fields, zap.Error(r.Err))
		}
		logger.Info("node summary", fields...)
	}
}
