package es

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	gock "gopkg.in/h2non/gock.v1"

	"github.com/mintel/elasticsearch-rolling/internal/pkg/testutil"
)

func TestCatNodesService(t *testing.T) {
	ctx, _, teardown := testutil.ClientTestSetup(t)
	defer teardown()

	gock.New(testURL).
		Get("/_cat/nodes").
		MatchParam("h", "name").
		Reply(http.StatusOK).
		BodyString(testutil.LoadTestData("cat_nodes.txt"))

	resp, err := NewCatNodesService(newTestClient(t)).Do(ctx)
	if assert.NoError(t, err) {
		assert.Equal(t, []string{"data1", "master1", "data2"}, resp.Names())
		assert.True(t, resp.Contains("data2"))
		assert.False(t, resp.Contains("data3"))
	}
	assert.Condition(t, gock.IsDone)
}

func TestCatNodesResponse_Contains(t *testing.T) {
	r := CatNodesResponse("data10\nmaster1\n")
	// Membership is substring based, so a prefix matches too.
	assert.True(t, r.Contains("data1"))
	assert.False(t, r.Contains(""))
	assert.Empty(t, CatNodesResponse("").Names())
}
