package es

import (
	"testing"

	elastic "github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/require"
)

const testURL = elastic.DefaultURL

// newTestClient returns a client pointed at the default URL, which is
// where the gock mocks in this package are registered.
func newTestClient(t *testing.T) *elastic.Client {
	client, err := NewHostClient(ConnectionConfig{}, testURL)
	require.NoError(t, err)
	return client
}
