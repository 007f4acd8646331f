package harvest_test

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/harvest"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/storage"
)

func TestReport_MessageAndJSON(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(t, []string{item("landcover", "a", "2020-01-01"), item("landcover", "b", "")})

	report, err := newOrchestrator(catalog.client(), storage.NewMemoryStore(), defaultOptions()).Run(context.Background())
	require.NoError(t, err)

	msg := report.Message()
	assert.Contains(t, msg, "published 4 objects (root 1, collections 2, items 1)")
	assert.Contains(t, msg, "1 failures:")
	assert.Contains(t, msg, "item landcover/b:")

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.RunID, decoded["run_id"])
	assert.Equal(t, harvest.OutcomePartial, decoded["outcome"])
	assert.Equal(t, "DONE", decoded["state"])

	failures, ok := decoded["failures"].([]any)
	require.True(t, ok)
	require.Len(t, failures, 1)
	failure, ok := failures[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "item", failure["kind"])
	assert.NotEmpty(t, failure["error"])
}
