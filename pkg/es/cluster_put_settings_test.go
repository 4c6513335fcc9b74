package es

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	gock "gopkg.in/h2non/gock.v1"

	"github.com/mintel/elasticsearch-rolling/internal/pkg/testutil"
)

func TestClusterPutSettingsService(t *testing.T) {
	ctx, _, teardown := testutil.ClientTestSetup(t)
	defer teardown()

	gock.New(testURL).
		Put("/_cluster/settings").
		JSON(map[string]interface{}{
			"transient": map[string]interface{}{
				AllocationEnableSetting: "none",
			},
		}).
		Reply(http.StatusOK).
		BodyString(testutil.LoadTestData("cluster_put_settings_none.json"))

	resp, err := NewClusterPutSettingsService(newTestClient(t)).
		Transient(AllocationEnableSetting, "none").
		Do(ctx)
	if assert.NoError(t, err) {
		assert.True(t, resp.Acknowledged)
		setting, ok := NewAllocationSetting(resp.Transient)
		assert.True(t, ok)
		assert.Equal(t, AllocationNone, setting.Mode)
	}
	assert.Condition(t, gock.IsDone)
}

func TestClusterPutSettingsService_notAcknowledged(t *testing.T) {
	ctx, _, teardown := testutil.ClientTestSetup(t)
	defer teardown()

	gock.New(testURL).
		Put("/_cluster/settings").
		Reply(http.StatusOK).
		JSON(map[string]interface{}{"acknowledged": false, "persistent": map[string]interface{}{}, "transient": map[string]interface{}{}})

	resp, err := NewClusterPutSettingsService(newTestClient(t)).
		Transient(AllocationEnableSetting, "all").
		Do(ctx)
	if assert.NoError(t, err) {
		assert.False(t, resp.Acknowledged)
	}
}

func TestClusterPutSettingsService_body(t *testing.T) {
	s := NewClusterPutSettingsService(nil).Transient("a", 1)
	assert.Equal(t, map[string]interface{}{
		"transient": map[string]interface{}{"a": 1},
	}, s.body())

	s.Persistent("b", nil)
	assert.Contains(t, s.body(), "persistent")
}
