package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-lingo/internal/bundle"
	"github.com/goliatone/go-lingo/internal/identity"
)

// MemoryRepository stores bundles in-memory.
type MemoryRepository struct {
	mu          sync.RWMutex
	records     map[string]Record
	now         func() time.Time
	broadcaster *changeBroadcaster
}

// MemoryOption configures a MemoryRepository.
type MemoryOption func(*MemoryRepository)

// WithMemoryClock overrides the timestamp source.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(r *MemoryRepository) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository(opts ...MemoryOption) *MemoryRepository {
	r := &MemoryRepository{
		records:     make(map[string]Record),
		now:         time.Now,
		broadcaster: newChangeBroadcaster(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) Get(_ context.Context, namespace, language string) (Record, error) {
	namespace, language, err := normalizeAddress(namespace, language)
	if err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[identity.BundleKey(namespace, language)]
	if !ok {
		return Record{}, ErrBundleNotFound
	}
	return record, nil
}

// List returns records ordered by key.
func (r *MemoryRepository) List(context.Context) ([]Record, error) {
	r.mu.RLock()
	records := make([]Record, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

// Upsert stores the tree. Writing an identical payload is a no-op and emits
// no event.
func (r *MemoryRepository) Upsert(_ context.Context, namespace, language string, tree *bundle.Node) (Record, error) {
	record, err := buildRecord(namespace, language, tree)
	if err != nil {
		return Record{}, err
	}

	r.mu.Lock()
	previous, exists := r.records[record.Key]
	if exists && previous.Checksum == record.Checksum {
		r.mu.Unlock()
		return previous, nil
	}
	now := r.now().UTC()
	record.CreatedAt = now
	if exists {
		record.CreatedAt = previous.CreatedAt
	}
	record.UpdatedAt = now
	r.records[record.Key] = record
	r.mu.Unlock()

	changeType := ChangeUpdated
	if !exists {
		changeType = ChangeCreated
	}
	r.broadcaster.Broadcast(newChangeEvent(changeType, record))
	return record, nil
}

func (r *MemoryRepository) Delete(_ context.Context, namespace, language string) error {
	namespace, language, err := normalizeAddress(namespace, language)
	if err != nil {
		return err
	}
	key := identity.BundleKey(namespace, language)

	r.mu.Lock()
	record, ok := r.records[key]
	if !ok {
		r.mu.Unlock()
		return ErrBundleNotFound
	}
	delete(r.records, key)
	r.mu.Unlock()

	r.broadcaster.Broadcast(newChangeEvent(ChangeDeleted, record))
	return nil
}

// Subscribe delivers change events until the context is cancelled.
func (r *MemoryRepository) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	return r.broadcaster.Subscribe(ctx)
}
