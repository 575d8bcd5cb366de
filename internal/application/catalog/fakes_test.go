package catalog

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/bulk"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/rules"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memEntryRepository is an in-memory catalog with the same version check as
// the GORM repository
type memEntryRepository struct {
	mu      sync.Mutex
	entries map[string]*catalog.CatalogEntry
	// beforeSave runs before each write; tests use it to simulate a
	// concurrent writer
	beforeSave func(entry *catalog.CatalogEntry)
}

func newMemEntryRepository() *memEntryRepository {
	return &memEntryRepository{entries: make(map[string]*catalog.CatalogEntry)}
}

func cloneEntry(e *catalog.CatalogEntry) *catalog.CatalogEntry {
	c := *e
	c.ClearEvents()
	c.Fields = maps.Clone(e.Fields)
	c.Tags = slices.Clone(e.Tags)
	if e.Conflict != nil {
		conflict := *e.Conflict
		conflict.Candidates = slices.Clone(e.Conflict.Candidates)
		c.Conflict = &conflict
	}
	return &c
}

func (r *memEntryRepository) FindByKey(_ context.Context, key string) (*catalog.CatalogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[catalog.NormalizeKey(key)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneEntry(e), nil
}

func (r *memEntryRepository) FindByKeys(_ context.Context, keys []string) ([]catalog.CatalogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []catalog.CatalogEntry{}
	for _, k := range keys {
		if e, ok := r.entries[catalog.NormalizeKey(k)]; ok {
			out = append(out, *cloneEntry(e))
		}
	}
	sortEntries(out)
	return out, nil
}

func (r *memEntryRepository) FindAll(_ context.Context, filter catalog.EntryFilter) ([]catalog.CatalogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []catalog.CatalogEntry{}
	for _, e := range r.entries {
		if filter.State != "" && e.ApprovalState != filter.State {
			continue
		}
		if filter.BatchID != nil && e.BatchID != *filter.BatchID {
			continue
		}
		if filter.InConflict != nil && e.HasConflict() != *filter.InConflict {
			continue
		}
		if filter.Tag != "" && !e.HasTag(filter.Tag) {
			continue
		}
		if filter.Search != "" && !strings.Contains(e.Key, strings.ToUpper(filter.Search)) {
			continue
		}
		out = append(out, *cloneEntry(e))
	}
	sortEntries(out)
	return out, nil
}

func (r *memEntryRepository) FindPendingByBatch(ctx context.Context, batchID uuid.UUID) ([]catalog.CatalogEntry, error) {
	inConflict := false
	return r.FindAll(ctx, catalog.EntryFilter{State: catalog.ApprovalStatePending, BatchID: &batchID, InConflict: &inConflict})
}

func (r *memEntryRepository) FindApprovedByKeys(ctx context.Context, keys []string) ([]catalog.CatalogEntry, error) {
	all, err := r.FindByKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := []catalog.CatalogEntry{}
	for _, e := range all {
		if e.IsApproved() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEntryRepository) Count(ctx context.Context, filter catalog.EntryFilter) (int64, error) {
	all, err := r.FindAll(ctx, filter)
	return int64(len(all)), err
}

func (r *memEntryRepository) SaveWithLock(_ context.Context, entry *catalog.CatalogEntry) error {
	if r.beforeSave != nil {
		r.beforeSave(entry)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, exists := r.entries[entry.Key]
	actual := 0
	if exists {
		actual = stored.Version
	}
	if entry.Version <= 1 {
		if exists {
			return shared.NewStaleVersionError(entry.Key, 0, actual)
		}
	} else if actual != entry.Version-1 {
		return shared.NewStaleVersionError(entry.Key, entry.Version-1, actual)
	}
	r.entries[entry.Key] = cloneEntry(entry)
	return nil
}

// put stores an entry directly, bypassing the version check
func (r *memEntryRepository) put(e *catalog.CatalogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Key] = cloneEntry(e)
}

func (r *memEntryRepository) get(key string) *catalog.CatalogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok {
		return cloneEntry(e)
	}
	return nil
}

func sortEntries(entries []catalog.CatalogEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
}

// memBatchRepository is an in-memory upload batch store
type memBatchRepository struct {
	mu      sync.Mutex
	batches map[uuid.UUID]bulk.UploadBatch
}

func newMemBatchRepository() *memBatchRepository {
	return &memBatchRepository{batches: make(map[uuid.UUID]bulk.UploadBatch)}
}

func (r *memBatchRepository) FindByID(_ context.Context, id uuid.UUID) (*bulk.UploadBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &b, nil
}

func (r *memBatchRepository) FindOpenByFingerprint(_ context.Context, fingerprint string) (*bulk.UploadBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.Fingerprint == fingerprint && b.Status.CanCommit() {
			found := b
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memBatchRepository) FindAll(_ context.Context, filter bulk.UploadBatchFilter) ([]bulk.UploadBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []bulk.UploadBatch{}
	for _, b := range r.batches {
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memBatchRepository) Count(ctx context.Context, filter bulk.UploadBatchFilter) (int64, error) {
	all, err := r.FindAll(ctx, filter)
	return int64(len(all)), err
}

func (r *memBatchRepository) Save(_ context.Context, batch *bulk.UploadBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *batch
	stored.ClearEvents()
	r.batches[batch.ID] = stored
	return nil
}

// MockUploadArchive is a mock implementation of UploadArchive
type MockUploadArchive struct {
	mock.Mock
}

func (m *MockUploadArchive) Put(ctx context.Context, batchID uuid.UUID, fileName string, data []byte) (string, error) {
	args := m.Called(ctx, batchID, fileName, data)
	return args.String(0), args.Error(1)
}

func (m *MockUploadArchive) DownloadURL(ctx context.Context, objectKey string) (string, time.Time, error) {
	args := m.Called(ctx, objectKey)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockUploadArchive) Delete(ctx context.Context, objectKey string) error {
	args := m.Called(ctx, objectKey)
	return args.Error(0)
}

// recordingPublisher keeps every published event type
type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range events {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.types {
		if t == eventType {
			n++
		}
	}
	return n
}

// MockPipelineRecorder is a mock implementation of PipelineRecorder
type MockPipelineRecorder struct {
	mock.Mock
}

func (m *MockPipelineRecorder) RecordVerdicts(ctx context.Context, counts map[string]int) {
	m.Called(ctx, counts)
}

func (m *MockPipelineRecorder) RecordPlan(ctx context.Context, counts map[string]int) {
	m.Called(ctx, counts)
}

func (m *MockPipelineRecorder) RecordApproval(ctx context.Context, outcome string) {
	m.Called(ctx, outcome)
}

func (m *MockPipelineRecorder) RecordCommit(ctx context.Context, applied, stale, failed int) {
	m.Called(ctx, applied, stale, failed)
}

func (m *MockPipelineRecorder) ObserveStage(ctx context.Context, stage string, d time.Duration) {
	m.Called(ctx, stage, d)
}

// staticRules serves one compiled rule set
type staticRules struct {
	set *rules.RuleSet
}

func newStaticRules() *staticRules {
	set, err := rules.Build(rules.SourceDefault, rules.DefaultYAML())
	if err != nil {
		panic(err)
	}
	return &staticRules{set: set}
}

func (s *staticRules) Active() *rules.RuleSet       { return s.set }
func (s *staticRules) Engine() *verification.Engine { return s.set.Engine }
func (s *staticRules) Reload() error                { return nil }
