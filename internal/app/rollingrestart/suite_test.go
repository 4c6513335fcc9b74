package rollingrestart

import (
	"context"
	"time"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
	"github.com/stretchr/testify/suite"     // Test suite.
	gock "gopkg.in/h2non/gock.v1"           // HTTP request mocking.

	"github.com/mintel/elasticsearch-rolling/internal/app/rollingrestart/mocks" // Mock NodeExecutor.
	"github.com/mintel/elasticsearch-rolling/internal/pkg/testutil"             // Testing utilities.
	"github.com/mintel/elasticsearch-rolling/pkg/ctxlog"                        // Logger from context.
)

const testURL = elastic.DefaultURL

// testTiming shrinks every interval so polling tests run quickly.
func testTiming() Timing {
	d := time.Millisecond
	return Timing{
		NodePoll:        d,
		ErrorRetry:      d,
		GreenPoll:       d,
		AllocationRetry: d,
		ServicePoll:     d,
		ProbeInterval:   d,
		StopSettle:      d,
		RebootSettle:    d,
	}
}

// clusterSuite is embedded by the test suites that talk to a
// gock-mocked Elasticsearch.
type clusterSuite struct {
	suite.Suite

	Ctx      context.Context
	Facade   *ElasticsearchFacade
	Requests *testutil.RequestLog
	Executor *mocks.NodeExecutor

	teardown func()
}

func (suite *clusterSuite) SetupTest() {
	ctx, logger, teardown := testutil.ClientTestSetup(suite.T())
	c, err := elastic.NewSimpleClient()
	if err != nil {
		panic(err)
	}
	suite.Ctx = ctxlog.WithLogger(ctx, logger)
	suite.Facade = NewElasticsearchFacade(c)
	suite.Requests = testutil.RecordRequests(logger)
	suite.Executor = &mocks.NodeExecutor{}
	suite.teardown = teardown
}

func (suite *clusterSuite) TearDownTest() {
	suite.teardown()
}

// mockInfo registers a response for `GET /`.
func mockInfo() {
	gock.New(testURL).
		Get("^/$").
		Reply(200).
		BodyString(testutil.LoadTestData("cluster_info.json"))
}

func mockGetSettings(file string) {
	gock.New(testURL).
		Get("/_cluster/settings").
		Reply(200).
		BodyString(testutil.LoadTestData(file))
}

func mockPutSettings(file string) {
	gock.New(testURL).
		Put("/_cluster/settings").
		Reply(200).
		BodyString(testutil.LoadTestData(file))
}

func mockFlush(times int) {
	gock.New(testURL).
		Post("/_flush/synced").
		Times(times).
		Reply(200).
		BodyString(testutil.LoadTestData("flush_synced.json"))
}

func mockCatNodes(file string) {
	gock.New(testURL).
		Get("/_cat/nodes").
		Reply(200).
		BodyString(testutil.LoadTestData(file))
}

func mockHealth(file string) {
	gock.New(testURL).
		Get("/_cluster/health").
		Reply(200).
		BodyString(testutil.LoadTestData(file))
}
