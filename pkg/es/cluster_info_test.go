package es

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	gock "gopkg.in/h2non/gock.v1"

	"github.com/mintel/elasticsearch-rolling/internal/pkg/testutil"
)

func TestClusterInfoService(t *testing.T) {
	ctx, _, teardown := testutil.ClientTestSetup(t)
	defer teardown()

	gock.New(testURL).
		Get("/").
		Reply(http.StatusOK).
		BodyString(testutil.LoadTestData("cluster_info.json"))

	resp, err := NewClusterInfoService(newTestClient(t)).Do(ctx)
	if assert.NoError(t, err) {
		assert.Equal(t, &ClusterInfoResponse{
			Name:        "data1",
			ClusterName: "logging-prod",
			ClusterUUID: "Gdhb5dY8QBO6qFJnK2k7Lw",
			Version:     "7.2.0",
		}, resp)
	}
	assert.Condition(t, gock.IsDone)
}

func TestClusterInfoService_error(t *testing.T) {
	ctx, _, teardown := testutil.ClientTestSetup(t)
	defer teardown()

	gock.New(testURL).
		Get("/").
		Reply(http.StatusUnauthorized).
		JSON(map[string]interface{}{"error": "unauthorized", "status": 401})

	_, err := NewClusterInfoService(newTestClient(t)).Do(ctx)
	assert.Error(t, err)
	assert.Condition(t, gock.IsDone)
}
