// Package harvest drives a full STAC to GeoCore synchronization run.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/geocore"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/logger"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/stac"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/storage"
)

// ItemSource selects where items are read from.
type ItemSource string

// Item sources.
const (
	ItemSourceSearch      ItemSource = "search"
	ItemSourceCollections ItemSource = "collections"
)

// PageErrorPolicy decides what a failed item page does to the run.
type PageErrorPolicy string

// Page error policies.
const (
	// PageErrorTruncate keeps the pages already harvested and moves on.
	PageErrorTruncate PageErrorPolicy = "truncate"
	// PageErrorAbort stops item harvesting and marks the run failed.
	PageErrorAbort PageErrorPolicy = "abort"
)

// Catalog is the STAC API the orchestrator reads.
type Catalog interface {
	stac.PageFetcher
	Root(ctx context.Context) (stac.Entity, error)
	Collections(ctx context.Context) ([]stac.Entity, error)
	SearchURL() string
	ItemsURL(collection stac.Entity) string
}

// Locker guards against concurrent runs on the same output store.
type Locker interface {
	Acquire(ctx context.Context, owner string) error
	Release(ctx context.Context, owner string) error
}

// Options configures where a run publishes and how it walks items.
type Options struct {
	OutputBucket    string
	RunLogBucket    string
	RunLogKey       string
	ItemSource      ItemSource
	PageErrorPolicy PageErrorPolicy
	// SweepOrphans deletes source objects missing from the new run log.
	SweepOrphans bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithLocker sets the run lock.
func WithLocker(l Locker) Option {
	return func(o *Orchestrator) {
		o.locker = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Orchestrator runs the delete-then-rewrite synchronization.
// It is sequential and holds no state between runs.
type Orchestrator struct {
	catalog   Catalog
	store     storage.ObjectStore
	mapper    *geocore.Mapper
	paginator *stac.Paginator
	opts      Options
	log       logger.Logger
	recorder  Recorder
	locker    Locker
	now       func() time.Time
}

// New creates an Orchestrator.
func New(
	catalog Catalog,
	store storage.ObjectStore,
	settings geocore.Settings,
	opts Options,
	log logger.Logger,
	options ...Option,
) *Orchestrator {
	if opts.ItemSource == "" {
		opts.ItemSource = ItemSourceSearch
	}
	if opts.PageErrorPolicy == "" {
		opts.PageErrorPolicy = PageErrorTruncate
	}

	o := &Orchestrator{
		catalog:   catalog,
		store:     store,
		mapper:    geocore.NewMapper(settings),
		paginator: stac.NewPaginator(catalog),
		opts:      opts,
		log:       log,
		recorder:  nopRecorder{},
		now:       time.Now,
	}

	for _, opt := range options {
		opt(o)
	}

	return o
}

// run carries the state of one invocation.
type run struct {
	report  *Report
	log     logger.Logger
	runLog  *runLog
	texts   map[string]geocore.CollectionText
	stopped bool
}

// Run performs one harvest. Per-entity failures are collected in the report;
// an error is returned only when the run could not start.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()

	if o.locker != nil {
		if err := o.locker.Acquire(ctx, runID); err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		defer func() {
			if err := o.locker.Release(context.WithoutCancel(ctx), runID); err != nil {
				o.log.Warn("Failed to release run lock", logger.String("run_id", runID), logger.Error(err))
			}
		}()
	}

	r := &run{
		report: newReport(runID, o.now()),
		log:    o.log.With(logger.String("run_id", runID)),
		runLog: newRunLog(),
		texts:  make(map[string]geocore.CollectionText),
	}

	ctx = logger.WithContext(ctx, r.log)

	r.log.Info("Harvest started",
		logger.String("item_source", string(o.opts.ItemSource)),
		logger.String("output_bucket", o.opts.OutputBucket),
	)

	o.execute(ctx, r)

	r.report.finish(o.now())
	o.recorder.RunFinished(r.report.Outcome, r.report.Duration())

	r.log.Info("Harvest finished",
		logger.String("outcome", r.report.Outcome),
		logger.Int("published", r.report.Published),
		logger.Int("deleted", r.report.Deleted),
		logger.Int("failures", len(r.report.Failures)),
		logger.Duration("duration", r.report.Duration()),
	)

	return r.report, nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run) {
	o.enter(r, StateCheckConnectivity)
	root, collections, err := o.checkConnectivity(ctx)
	if err != nil {
		r.log.Error("Harvest aborted", logger.Error(err))
		r.report.abort(KindCatalog, err)
		return
	}

	o.enter(r, StateDeletePrior)
	if err = o.deletePrior(ctx, r); err != nil {
		r.log.Error("Harvest aborted", logger.Error(err))
		r.report.abort(KindRunLog, err)
		return
	}

	o.enter(r, StateHarvestRoot)
	rootFeatureID := o.harvestRoot(ctx, r, root, collections)

	o.enter(r, StateHarvestCollections)
	o.harvestCollections(ctx, r, collections, rootFeatureID)

	o.enter(r, StateHarvestItems)
	o.harvestItems(ctx, r, collections)

	o.enter(r, StatePublishRunLog)
	o.publishRunLog(ctx, r)

	if o.opts.SweepOrphans && r.report.RunLogWritten {
		o.enter(r, StateSweepOrphans)
		o.sweepOrphans(ctx, r)
	}
}

func (o *Orchestrator) enter(r *run, state State) {
	r.report.State = state
	r.log.Debug("Harvest stage", logger.String("stage", string(state)))
}

// checkConnectivity fetches the root and the collections. Nothing in the
// output store is touched when either fails.
func (o *Orchestrator) checkConnectivity(ctx context.Context) (stac.Entity, []stac.Entity, error) {
	root, err := o.catalog.Root(ctx)
	if err != nil {
		return nil, nil, &ConnectivityError{Endpoint: "root", Err: err}
	}

	collections, err := o.catalog.Collections(ctx)
	if err != nil {
		return nil, nil, &ConnectivityError{Endpoint: "collections", Err: err}
	}

	return root, collections, nil
}

// deletePrior removes every object named in the previous run log. An
// unreadable run log is returned as an error: publishing a new one would lose
// the only record of the old keys. Keys that fail to delete are carried into
// the new run log so the next run retries them.
func (o *Orchestrator) deletePrior(ctx context.Context, r *run) error {
	data, err := o.store.GetObject(ctx, o.opts.RunLogBucket, o.opts.RunLogKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		r.log.Info("No previous run log, nothing to delete", logger.String("key", o.opts.RunLogKey))
		return nil
	case err != nil:
		return fmt.Errorf("read previous run log %s/%s: %w", o.opts.RunLogBucket, o.opts.RunLogKey, err)
	}

	keys := ParseRunLog(data)
	for _, key := range keys {
		if delErr := o.store.DeleteObject(ctx, o.opts.OutputBucket, key); delErr != nil {
			r.log.Warn("Failed to delete prior object, keeping it in the run log",
				logger.String("key", key),
				logger.Error(delErr),
			)
			r.report.fail(KindPrior, "", key, delErr)
			r.runLog.add(key)
			continue
		}
		r.report.Deleted++
	}

	o.recorder.ObjectsDeleted(r.report.Deleted)
	r.log.Info("Deleted prior output", logger.Int("deleted", r.report.Deleted), logger.Int("listed", len(keys)))
	return nil
}

// harvestRoot publishes the root feature and returns its id, which the
// collections reference even when the root itself failed.
func (o *Orchestrator) harvestRoot(ctx context.Context, r *run, root stac.Entity, collections []stac.Entity) string {
	fields := root.Root()
	rootFeatureID := geocore.RootFeatureID(o.mapper.Source(), fields.ID)

	bboxes := make([][]float64, 0, len(collections))
	for _, c := range collections {
		bboxes = append(bboxes, c.Collection().BBox)
	}
	bbox, _ := geocore.UnionBBox(bboxes)

	fc, err := o.mapper.MapRoot(fields, bbox)
	if !o.publish(ctx, r, KindRoot, fields.ID, fc, err) {
		r.log.Warn("Root feature not published, collections still reference it",
			logger.String("parent_identifier", rootFeatureID),
		)
	}

	return rootFeatureID
}

func (o *Orchestrator) harvestCollections(ctx context.Context, r *run, collections []stac.Entity, rootFeatureID string) {
	for _, c := range collections {
		if ctx.Err() != nil {
			return
		}

		fields := c.Collection()
		if fields.ID != "" {
			r.texts[fields.ID] = geocore.NewCollectionText(fields)
		}

		fc, err := o.mapper.MapCollection(fields, rootFeatureID)
		o.publish(ctx, r, KindCollection, fields.ID, fc, err)
	}
}

func (o *Orchestrator) harvestItems(ctx context.Context, r *run, collections []stac.Entity) {
	if o.opts.ItemSource == ItemSourceCollections {
		for _, c := range collections {
			if r.stopped || ctx.Err() != nil {
				return
			}
			o.walkItems(ctx, r, o.catalog.ItemsURL(c))
		}
		return
	}

	o.walkItems(ctx, r, o.catalog.SearchURL())
}

func (o *Orchestrator) walkItems(ctx context.Context, r *run, startURL string) {
	pages := 0
	err := o.paginator.Walk(ctx, startURL, func(page *stac.Page) error {
		pages++
		for _, feature := range page.Features {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.harvestItem(ctx, r, feature)
		}
		return nil
	})

	r.log.Debug("Item walk finished", logger.String("url", startURL), logger.Int("pages", pages))

	if err == nil {
		return
	}

	r.report.ItemsTruncated = true
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r.stopped = true
		r.report.fail(KindPage, "", startURL, err)
		return
	}

	if o.opts.PageErrorPolicy == PageErrorAbort {
		r.stopped = true
		err = fmt.Errorf("%w: %w", ErrPaginationAborted, err)
	}

	r.log.Error("Item pagination ended early",
		logger.String("url", startURL),
		logger.String("policy", string(o.opts.PageErrorPolicy)),
		logger.Error(err),
	)
	r.report.fail(KindPage, "", startURL, err)
}

func (o *Orchestrator) harvestItem(ctx context.Context, r *run, feature stac.Entity) {
	fields := feature.Item()
	fc, err := o.mapper.MapItem(fields, r.texts[fields.CollectionID])
	o.publish(ctx, r, KindItem, itemRef(fields), fc, err)
}

func itemRef(i stac.ItemFields) string {
	if i.CollectionID == "" {
		return i.ID
	}
	return i.CollectionID + "/" + i.ID
}

// publish writes one mapped feature and appends its key to the run log.
// mapErr is the error the mapper returned for the entity. It reports whether
// the feature was stored.
func (o *Orchestrator) publish(ctx context.Context, r *run, kind Kind, id string, fc *geocore.FeatureCollection, mapErr error) bool {
	if mapErr != nil {
		err := &EntityMappingError{Kind: kind, ID: id, Err: mapErr}
		r.log.Warn("Skipping entity", logger.String("kind", string(kind)), logger.String("entity", id), logger.Error(err))
		r.report.fail(kind, id, "", err)
		o.recorder.EntityProcessed(string(kind), "mapping_failed")
		return false
	}

	key := geocore.ObjectKey(fc.ID())

	data, err := fc.Encode()
	if err == nil {
		err = o.store.PutObject(ctx, o.opts.OutputBucket, key, data)
	}
	if err != nil {
		pubErr := &PublishError{Bucket: o.opts.OutputBucket, Key: key, Err: err}
		r.log.Error("Failed to publish entity",
			logger.String("kind", string(kind)),
			logger.String("entity", id),
			logger.String("key", key),
			logger.Error(err),
		)
		r.report.fail(kind, id, key, pubErr)
		o.recorder.EntityProcessed(string(kind), "publish_failed")
		return false
	}

	r.runLog.add(key)
	r.report.published(kind)
	o.recorder.EntityProcessed(string(kind), "published")
	r.log.Debug("Published entity", logger.String("kind", string(kind)), logger.String("key", key))
	return true
}

// publishRunLog replaces the persisted run log with this run's keys.
func (o *Orchestrator) publishRunLog(ctx context.Context, r *run) {
	// written even after cancellation
	ctx = context.WithoutCancel(ctx)

	if err := o.store.PutObject(ctx, o.opts.RunLogBucket, o.opts.RunLogKey, FormatRunLog(r.runLog.keys)); err != nil {
		pubErr := &PublishError{Bucket: o.opts.RunLogBucket, Key: o.opts.RunLogKey, Err: err}
		r.log.Error("Failed to publish run log", logger.Error(pubErr))
		r.report.fail(KindRunLog, "", o.opts.RunLogKey, pubErr)
		return
	}

	r.report.RunLogWritten = true
	r.log.Info("Published run log", logger.String("key", o.opts.RunLogKey), logger.Int("entries", r.runLog.size()))
}

// sweepOrphans deletes objects of this source that the new run log does not
// name, such as leftovers of a run that stopped before its run log was written.
func (o *Orchestrator) sweepOrphans(ctx context.Context, r *run) {
	keys, err := o.store.ListObjects(ctx, o.opts.OutputBucket)
	if err != nil {
		r.log.Warn("Failed to list output bucket for orphan sweep", logger.Error(err))
		r.report.fail(KindOrphan, "", "", fmt.Errorf("list %s: %w", o.opts.OutputBucket, err))
		return
	}

	prefix := o.mapper.Source() + "-"
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, geocore.ObjectExt) || r.runLog.contains(key) {
			continue
		}
		if delErr := o.store.DeleteObject(ctx, o.opts.OutputBucket, key); delErr != nil {
			r.report.fail(KindOrphan, "", key, delErr)
			continue
		}
		r.report.Swept++
	}

	if r.report.Swept > 0 {
		o.recorder.ObjectsDeleted(r.report.Swept)
		r.log.Info("Swept orphaned objects", logger.Int("swept", r.report.Swept))
	}
}
