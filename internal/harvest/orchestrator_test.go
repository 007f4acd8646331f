package harvest_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/geocore"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/harvest"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/logger"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/stac"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/storage"
)

const (
	outputBucket = "geocore"
	runLogBucket = "templates"
	runLogKey    = "lastRun.txt"
)

const (
	rootKey      = "ccmeo-root-My-Root.geojson"
	landcoverKey = "ccmeo-landcover.geojson"
	elevationKey = "ccmeo-elevation.geojson"
)

// fakeCatalog is a STAC API with two collections and paginated search.
type fakeCatalog struct {
	srv             *httptest.Server
	rootDown        atomic.Bool
	collectionsDown atomic.Bool
	blankRootID     atomic.Bool
	// failPage is the 1-based search page answering 500, 0 for none.
	failPage atomic.Int32

	mu    sync.Mutex
	pages [][]string
}

func newFakeCatalog(t *testing.T, pages ...[]string) *fakeCatalog {
	t.Helper()

	fc := &fakeCatalog{pages: pages}
	fc.srv = httptest.NewServer(http.HandlerFunc(fc.serve))
	t.Cleanup(fc.srv.Close)

	return fc
}

func (fc *fakeCatalog) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	base := fc.srv.URL

	switch {
	case r.URL.Path == "/" || r.URL.Path == "":
		if fc.rootDown.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		rootID := "My Root"
		if fc.blankRootID.Load() {
			rootID = ""
		}
		fmt.Fprintf(w, `{"id": %q, "description": "d", "links": [{"rel": "self", "href": %q}]}`, rootID, base+"/")

	case r.URL.Path == "/collections":
		if fc.collectionsDown.Load() {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		body := fmt.Sprintf(`{"collections": [%s, %s], "links": []}`,
			collection("landcover", "Land Cover/Couverture du sol", [4]float64{-141, 41, -52, 83}),
			collection("elevation", "Elevation/Élévation", [4]float64{-150, 45, -110, 60}),
		)
		fmt.Fprint(w, strings.ReplaceAll(body, "{{base}}", base))

	case r.URL.Path == "/search":
		fc.serveSearch(w, r)

	case strings.HasPrefix(r.URL.Path, "/collections/") && strings.HasSuffix(r.URL.Path, "/items"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/collections/"), "/items")
		fc.mu.Lock()
		var feats []string
		for _, page := range fc.pages {
			for _, f := range page {
				if strings.Contains(f, `"collection": "`+id+`"`) {
					feats = append(feats, f)
				}
			}
		}
		fc.mu.Unlock()
		fmt.Fprintf(w, `{"type": "FeatureCollection", "features": [%s], "links": []}`, strings.Join(feats, ","))

	default:
		http.NotFound(w, r)
	}
}

func (fc *fakeCatalog) serveSearch(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		page, _ = strconv.Atoi(p)
	}
	if int(fc.failPage.Load()) == page {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	matched := 0
	for _, p := range fc.pages {
		matched += len(p)
	}

	var feats []string
	if page-1 < len(fc.pages) {
		feats = fc.pages[page-1]
	}

	next := ""
	if page < len(fc.pages) {
		next = fmt.Sprintf(`{"rel": "next", "href": "%s/search?page=%d"}`, fc.srv.URL, page+1)
	}

	fmt.Fprintf(w, `{"type": "FeatureCollection", "features": [%s], "context": {"returned": %d, "matched": %d}, "links": [%s]}`,
		strings.Join(feats, ","), len(feats), matched, next)
}

func (fc *fakeCatalog) setPages(pages ...[]string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.pages = pages
}

func (fc *fakeCatalog) client() *stac.Client {
	return stac.NewClient(fc.srv.URL, stac.WithHTTPClient(fc.srv.Client()))
}

func collection(id, title string, bbox [4]float64) string {
	return fmt.Sprintf(`{
		"id": %q, "title": %q, "description": "Desc/Desc fr", "keywords": ["a", "b"],
		"extent": {"spatial": {"bbox": [[%g, %g, %g, %g]]}, "temporal": {"interval": [["2010-01-01T00:00:00Z", null]]}},
		"links": [{"rel": "items", "href": "{{base}}/collections/%s/items"}]
	}`, id, title, bbox[0], bbox[1], bbox[2], bbox[3], id)
}

func item(collectionID, id, datetime string) string {
	dt := "null"
	if datetime != "" {
		dt = strconv.Quote(datetime)
	}
	return fmt.Sprintf(`{
		"type": "Feature", "id": %q, "collection": %q, "bbox": [-75.5, 45.1, -75.2, 45.4],
		"properties": {"datetime": %s},
		"links": [{"rel": "collection", "href": "https://example.com/c"}],
		"assets": {"data": {"href": "https://example.com/%s.tif", "type": "image/tiff; application=geotiff", "roles": ["data"]}}
	}`, id, collectionID, dt, id)
}

func itemKey(collectionID, id string) string {
	return geocore.ObjectKey(geocore.ItemFeatureID(geocore.DefaultSource, collectionID, id))
}

func defaultOptions() harvest.Options {
	return harvest.Options{
		OutputBucket: outputBucket,
		RunLogBucket: runLogBucket,
		RunLogKey:    runLogKey,
	}
}

func newOrchestrator(catalog harvest.Catalog, store storage.ObjectStore, opts harvest.Options, options ...harvest.Option) *harvest.Orchestrator {
	return harvest.New(catalog, store, geocore.DefaultSettings(), opts, logger.NewNop(), options...)
}

func runLogKeys(t *testing.T, store storage.ObjectStore) []string {
	t.Helper()

	data, err := store.GetObject(context.Background(), runLogBucket, runLogKey)
	require.NoError(t, err)
	return harvest.ParseRunLog(data)
}

func TestOrchestrator_RerunLeavesSameKeys(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(t,
		[]string{item("landcover", "lc-2020", "2020-06-01T00:00:00Z"), item("elevation", "el-1", "2019-01-01")},
		[]string{item("landcover", "lc-2021", "2021-06-01T00:00:00Z")},
	)
	store := storage.NewMemoryStore()
	orch := newOrchestrator(catalog.client(), store, defaultOptions())

	first, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, harvest.OutcomeSuccess, first.Outcome, first.Message())
	assert.Equal(t, harvest.StateDone, first.State)
	assert.Equal(t, 6, first.Published)
	assert.Equal(t, 0, first.Deleted)

	want := []string{
		itemKey("elevation", "el-1"),
		elevationKey,
		itemKey("landcover", "lc-2020"),
		itemKey("landcover", "lc-2021"),
		landcoverKey,
		rootKey,
	}
	assert.Equal(t, want, store.Keys(outputBucket))
	assert.ElementsMatch(t, want, runLogKeys(t, store))

	second, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, second.Deleted)
	assert.Equal(t, want, store.Keys(outputBucket))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestOrchestrator_RemovedItemIsDeletedOnNextRun(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(t, []string{
		item("landcover", "keep", "2020-01-01T00:00:00Z"),
		item("landcover", "gone", "2020-01-01T00:00:00Z"),
	})
	store := storage.NewMemoryStore()
	orch := newOrchestrator(catalog.client(), store, defaultOptions())

	_, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, store.Keys(outputBucket), itemKey("landcover", "gone"))

	catalog.setPages([]string{item("landcover", "keep", "2020-01-01T00:00:00Z")})

	_, err = orch.Run(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, store.Keys(outputBucket), itemKey("landcover", "gone"))
	assert.Contains(t, store.Keys(outputBucket), itemKey("landcover", "keep"))
}

func TestOrchestrator_ConnectivityAbortPreservesOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		down     func(*fakeCatalog)
		endpoint string
	}{
		{name: "root", down: func(c *fakeCatalog) { c.rootDown.Store(true) }, endpoint: "root"},
		{name: "collections", down: func(c *fakeCatalog) { c.collectionsDown.Store(true) }, endpoint: "collections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			catalog := newFakeCatalog(t, []string{item("landcover", "a", "2020-01-01")})
			tt.down(catalog)

			ctx := context.Background()
			store := storage.NewMemoryStore()
			require.NoError(t, store.PutObject(ctx, outputBucket, "ccmeo-old.geojson", []byte("{}")))
			require.NoError(t, store.PutObject(ctx, runLogBucket, runLogKey, []byte("ccmeo-old.geojson\n")))

			report, err := newOrchestrator(catalog.client(), store, defaultOptions()).Run(ctx)
			require.NoError(t, err)

			assert.True(t, report.Aborted())
			assert.True(t, report.Failed())
			assert.Equal(t, harvest.StateAbort, report.State)
			assert.Equal(t, harvest.OutcomeAborted, report.Outcome)
			assert.Contains(t, report.Message(), "aborted")

			var connErr *harvest.ConnectivityError
			require.ErrorAs(t, report.Err(), &connErr)
			assert.Equal(t, tt.endpoint, connErr.Endpoint)

			var reqErr *stac.RequestError
			require.ErrorAs(t, report.Err(), &reqErr)
			assert.Equal(t, stac.ErrTypeUpstream, reqErr.Type)

			assert.Equal(t, []string{"ccmeo-old.geojson"}, store.Keys(outputBucket))
			assert.Equal(t, []string{"ccmeo-old.geojson"}, runLogKeys(t, store))
		})
	}
}

// failingStore rejects writes to the listed keys.
type failingStore struct {
	*storage.MemoryStore
	failKeys map[string]bool
}

func (s *failingStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if s.failKeys[key] {
		return errors.New("access denied")
	}
	return s.MemoryStore.PutObject(ctx, bucket, key, data)
}

func TestOrchestrator_PublishFailureOmittedFromRunLog(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(t, []string{
		item("landcover", "ok", "2020-01-01"),
		item("landcover", "rejected", "2020-01-01"),
	})
	rejected := itemKey("landcover", "rejected")
	store := &failingStore{MemoryStore: storage.NewMemoryStore(), failKeys: map[string]bool{rejected: true}}

	report, err := newOrchestrator(catalog.client(), store, defaultOptions()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, harvest.OutcomePartial, report.Outcome)
	assert.False(t, report.Failed())
	assert.Equal(t, harvest.Counts{Published: 1, Failed: 1}, report.Entities[harvest.KindItem])

	require.Len(t, report.Failures, 1)
	var pubErr *harvest.PublishError
	require.ErrorAs(t, report.Failures[0].Err, &pubErr)
	assert.Equal(t, rejected, pubErr.Key)

	keys := runLogKeys(t, store)
	assert.NotContains(t, keys, rejected)
	assert.Contains(t, keys, itemKey("landcover", "ok"))
}

// flakyStore fails run log reads or deletes of chosen keys while its
// switches are on.
type flakyStore struct {
	*storage.MemoryStore
	failRunLogRead atomic.Bool
	failDelete     sync.Map
}

func (s *flakyStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == runLogBucket && s.failRunLogRead.Load() {
		return nil, errors.New("slow down")
	}
	return s.MemoryStore.GetObject(ctx, bucket, key)
}

func (s *flakyStore) DeleteObject(ctx context.Context, bucket, key string) error {
	if _, ok := s.failDelete.Load(key); ok {
		return errors.New("access denied")
	}
	return s.MemoryStore.DeleteObject(ctx, bucket, key)
}

func TestOrchestrator_FailedPriorDeleteIsRetriedNextRun(t *testing.T) {
	t.Parallel()

	keep := item("landcover", "keep", "2020-01-01T00:00:00Z")
	catalog := newFakeCatalog(t, []string{keep, item("landcover", "gone", "2020-01-01T00:00:00Z")})
	store := &flakyStore{MemoryStore: storage.NewMemoryStore()}
	orch := newOrchestrator(catalog.client(), store, defaultOptions())
	gone := itemKey("landcover", "gone")

	_, err := orch.Run(context.Background())
	require.NoError(t, err)

	catalog.setPages([]string{keep})
	store.failDelete.Store(gone, true)

	second, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, harvest.OutcomePartial, second.Outcome)
	require.Len(t, second.Failures, 1)
	assert.Equal(t, harvest.KindPrior, second.Failures[0].Kind)
	assert.Equal(t, gone, second.Failures[0].Key)
	assert.Contains(t, store.Keys(outputBucket), gone)
	assert.Contains(t, runLogKeys(t, store), gone)

	store.failDelete.Delete(gone)

	third, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, harvest.OutcomeSuccess, third.Outcome, third.Message())
	assert.NotContains(t, store.Keys(outputBucket), gone)
	assert.NotContains(t, runLogKeys(t, store), gone)
	assert.Contains(t, store.Keys(outputBucket), itemKey("landcover", "keep"))
}

func TestOrchestrator_UnreadableRunLogAbortsBeforeHarvest(t *testing.T) {
	t.Parallel()

	keep := item("landcover", "keep", "2020-01-01T00:00:00Z")
	catalog := newFakeCatalog(t, []string{keep, item("landcover", "gone", "2020-01-01T00:00:00Z")})
	store := &flakyStore{MemoryStore: storage.NewMemoryStore()}
	orch := newOrchestrator(catalog.client(), store, defaultOptions())
	gone := itemKey("landcover", "gone")

	_, err := orch.Run(context.Background())
	require.NoError(t, err)
	before := runLogKeys(t, store)

	catalog.setPages([]string{keep})
	store.failRunLogRead.Store(true)

	second, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Failed())
	assert.Equal(t, harvest.StateAbort, second.State)
	assert.Equal(t, harvest.OutcomeAborted, second.Outcome)
	assert.Equal(t, 0, second.Published)
	require.Len(t, second.Failures, 1)
	assert.Equal(t, harvest.KindRunLog, second.Failures[0].Kind)
	assert.Contains(t, second.Message(), "read previous run log")

	store.failRunLogRead.Store(false)
	assert.Equal(t, before, runLogKeys(t, store))

	third, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, harvest.OutcomeSuccess, third.Outcome, third.Message())
	assert.NotContains(t, store.Keys(outputBucket), gone)
	assert.NotContains(t, runLogKeys(t, store), gone)
}

func TestOrchestrator_MappingFailureContinues(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(t, []string{
		item("landcover", "undated", ""),
		item("landcover", "dated", "2020-01-01"),
	})
	store := storage.NewMemoryStore()

	report, err := newOrchestrator(catalog.client(), store, defaultOptions()).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	failure := report.Failures[0]
	assert.Equal(t, harvest.KindItem, failure.Kind)
	assert.Equal(t, "landcover/undated", failure.ID)

	var mapErr *harvest.EntityMappingError
	require.ErrorAs(t, failure.Err, &mapErr)
	var missing *geocore.MissingFieldError
	require.ErrorAs(t, failure.Err, &missing)
	assert.Equal(t, "properties.datetime", missing.Field)

	assert.Contains(t, store.Keys(outputBucket), itemKey("landcover", "dated"))
	assert.NotContains(t, store.Keys(outputBucket), itemKey("landcover", "undated"))
	assert.Contains(t, report.Message(), "landcover/undated")
}

func TestOrchestrator_RootBBoxIsCollectionUnion(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(t, []string{item("landcover", "a", "2020-01-01")})
	store := storage.NewMemoryStore()

	_, err := newOrchestrator(catalog.client(), store, defaultOptions()).Run(context.Background())
	require.NoError(t, err)

	data, err := store.GetObject(context.Background(), outputBucket, rootKey)
	require.NoError(t, err)

	var doc struct {
		Features []struct {
			Properties struct {
				ID       string            `json:"id"`
				Title    geocore.Bilingual `json:"title"`
				Geometry string            `json:"geometry"`
			} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Features, 1)

	props := doc.Features[0].Properties
	assert.Equal(t, "ccmeo-root-My-Root", props.ID)
	assert.Equal(t, "Root  - CCMEO Datacube", props.Title.En)
	assert.Equal(t, "POLYGON((-150 41, -52 41, -52 83, -150 83, -150 41))", props.Geometry)
}

func TestOrchestrator_UnpublishedRootIsLogged(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(t, []string{item("landcover", "a", "2020-01-01")})
	catalog.blankRootID.Store(true)
	store := storage.NewMemoryStore()
	core, logs := observer.New(zapcore.WarnLevel)

	orch := harvest.New(catalog.client(), store, geocore.DefaultSettings(), defaultOptions(), logger.NewFromZap(zap.New(core)))
	report, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, harvest.Counts{Failed: 1}, report.Entities[harvest.KindRoot])
	assert.Equal(t, 2, report.Entities[harvest.KindCollection].Published)

	warnings := logs.FilterMessage("Root feature not published, collections still reference it").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "ccmeo-root-", warnings[0].ContextMap()["parent_identifier"])

	data, err := store.GetObject(context.Background(), outputBucket, landcoverKey)
	require.NoError(t, err)
	var fc geocore.FeatureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	require.NotNil(t, fc.Features[0].Properties.ParentIdentifier)
	assert.Equal(t, "ccmeo-root-", *fc.Features[0].Properties.ParentIdentifier)
}

func TestOrchestrator_CollectionsItemSource(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(t, []string{
		item("landcover", "a", "2020-01-01"),
		item("elevation", "b", "2020-01-01"),
	})
	catalog.failPage.Store(1)
	store := storage.NewMemoryStore()

	opts := defaultOptions()
	opts.ItemSource = harvest.ItemSourceCollections

	report, err := newOrchestrator(catalog.client(), store, opts).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, harvest.OutcomeSuccess, report.Outcome, report.Message())
	assert.Contains(t, store.Keys(outputBucket), itemKey("landcover", "a"))
	assert.Contains(t, store.Keys(outputBucket), itemKey("elevation", "b"))
}

func TestOrchestrator_PageErrorPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		policy  harvest.PageErrorPolicy
		outcome string
	}{
		{policy: harvest.PageErrorTruncate, outcome: harvest.OutcomePartial},
		{policy: harvest.PageErrorAbort, outcome: harvest.OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			t.Parallel()

			catalog := newFakeCatalog(t,
				[]string{item("landcover", "first", "2020-01-01")},
				[]string{item("landcover", "second", "2020-01-01")},
			)
			catalog.failPage.Store(2)
			store := storage.NewMemoryStore()

			opts := defaultOptions()
			opts.PageErrorPolicy = tt.policy

			report, err := newOrchestrator(catalog.client(), store, opts).Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.outcome, report.Outcome)
			assert.True(t, report.ItemsTruncated)
			assert.True(t, report.RunLogWritten)

			require.Len(t, report.Failures, 1)
			assert.Equal(t, harvest.KindPage, report.Failures[0].Kind)
			assert.Equal(t, tt.policy == harvest.PageErrorAbort, errors.Is(report.Err(), harvest.ErrPaginationAborted))

			keys := runLogKeys(t, store)
			assert.Contains(t, keys, itemKey("landcover", "first"))
			assert.NotContains(t, keys, itemKey("landcover", "second"))
		})
	}
}

func TestOrchestrator_SweepOrphans(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := newFakeCatalog(t, []string{item("landcover", "a", "2020-01-01")})
	store := storage.NewMemoryStore()
	require.NoError(t, store.PutObject(ctx, outputBucket, "ccmeo-stale.geojson", []byte("{}")))
	require.NoError(t, store.PutObject(ctx, outputBucket, "other-source.geojson", []byte("{}")))
	require.NoError(t, store.PutObject(ctx, outputBucket, "ccmeo-notes.txt", []byte("keep")))

	opts := defaultOptions()
	opts.SweepOrphans = true

	report, err := newOrchestrator(catalog.client(), store, opts).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Swept)
	keys := store.Keys(outputBucket)
	assert.NotContains(t, keys, "ccmeo-stale.geojson")
	assert.Contains(t, keys, "other-source.geojson")
	assert.Contains(t, keys, "ccmeo-notes.txt")
	assert.Contains(t, report.Message(), "swept 1 orphans")
}

func TestOrchestrator_DuplicateItemsPublishedOnce(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(t,
		[]string{item("landcover", "dup", "2020-01-01")},
		[]string{item("landcover", "dup", "2020-01-01")},
	)
	store := storage.NewMemoryStore()

	_, err := newOrchestrator(catalog.client(), store, defaultOptions()).Run(context.Background())
	require.NoError(t, err)

	count := 0
	for _, k := range runLogKeys(t, store) {
		if k == itemKey("landcover", "dup") {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

type recorder struct {
	mu       sync.Mutex
	outcomes []string
	entities map[string]int
	deleted  int
}

func (r *recorder) RunFinished(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recorder) EntityProcessed(kind, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entities == nil {
		r.entities = make(map[string]int)
	}
	r.entities[kind+"/"+outcome]++
}

func (r *recorder) ObjectsDeleted(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted += n
}

func TestOrchestrator_RecordsMetrics(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(t, []string{item("landcover", "a", "2020-01-01"), item("landcover", "b", "")})
	rec := &recorder{}
	orch := newOrchestrator(catalog.client(), storage.NewMemoryStore(), defaultOptions(), harvest.WithRecorder(rec))

	_, err := orch.Run(context.Background())
	require.NoError(t, err)
	_, err = orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{harvest.OutcomePartial, harvest.OutcomePartial}, rec.outcomes)
	assert.Equal(t, 2, rec.entities["item/published"])
	assert.Equal(t, 2, rec.entities["item/mapping_failed"])
	assert.Equal(t, 2, rec.entities["root/published"])
	assert.Equal(t, 4, rec.deleted)
}

type stubLocker struct {
	acquireErr error
	released   atomic.Int32
}

func (l *stubLocker) Acquire(context.Context, string) error { return l.acquireErr }

func (l *stubLocker) Release(context.Context, string) error {
	l.released.Add(1)
	return nil
}

func TestOrchestrator_Lock(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(t, []string{item("landcover", "a", "2020-01-01")})

	held := &stubLocker{acquireErr: errors.New("held")}
	report, err := newOrchestrator(catalog.client(), storage.NewMemoryStore(), defaultOptions(), harvest.WithLocker(held)).
		Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Zero(t, held.released.Load())

	free := &stubLocker{}
	report, err = newOrchestrator(catalog.client(), storage.NewMemoryStore(), defaultOptions(), harvest.WithLocker(free)).
		Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.EqualValues(t, 1, free.released.Load())
}

func TestOrchestrator_ReportTimes(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(t, []string{item("landcover", "a", "2020-01-01")})
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * time.Minute)
	}

	report, err := newOrchestrator(catalog.client(), storage.NewMemoryStore(), defaultOptions(), harvest.WithClock(clock)).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, start, report.StartedAt)
	assert.Equal(t, time.Minute, report.Duration())
}
