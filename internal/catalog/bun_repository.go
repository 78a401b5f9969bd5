package catalog

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-lingo/internal/bundle"
	"github.com/goliatone/go-lingo/internal/identity"
)

// bundleCacheNamespace matches the key namespace repositorycache derives from
// the translationBundle type name.
const bundleCacheNamespace = "translation_bundle"

type translationBundle struct {
	bun.BaseModel `bun:"table:translation_bundles,alias:tb"`

	ID        uuid.UUID `bun:",pk,type:uuid"`
	BundleKey string    `bun:"bundle_key,notnull,unique"`
	Namespace string    `bun:"namespace,notnull"`
	Language  string    `bun:"language,notnull"`
	Payload   string    `bun:"payload,notnull"`
	Checksum  string    `bun:"checksum,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// NewBundleModelRepository builds the generic repository for bundle rows.
func NewBundleModelRepository(db *bun.DB) repository.Repository[*translationBundle] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*translationBundle]{
		NewRecord: func() *translationBundle { return &translationBundle{} },
		GetID: func(m *translationBundle) uuid.UUID {
			return m.ID
		},
		SetID: func(m *translationBundle, id uuid.UUID) {
			m.ID = id
		},
		GetIdentifier: func() string {
			return "bundle_key"
		},
		GetIdentifierValue: func(m *translationBundle) string {
			return m.BundleKey
		},
	})
}

// BunRepository persists bundles using Bun. Reads may go through a
// go-repository-cache layer; writes always use the base repository and
// invalidate the cached namespace.
type BunRepository struct {
	base         repository.Repository[*translationBundle]
	repo         repository.Repository[*translationBundle]
	cacheService cache.CacheService
	cachePrefix  string
	now          func() time.Time
	broadcaster  *changeBroadcaster
}

// BunOption configures a BunRepository.
type BunOption func(*BunRepository)

// WithBunClock overrides the timestamp source.
func WithBunClock(clock func() time.Time) BunOption {
	return func(r *BunRepository) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewBunRepository constructs a repository without caching.
func NewBunRepository(db *bun.DB, opts ...BunOption) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil, opts...)
}

// NewBunRepositoryWithCache constructs a repository whose reads are cached.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer, opts ...BunOption) *BunRepository {
	base := NewBundleModelRepository(db)
	r := &BunRepository{
		base:        base,
		repo:        base,
		now:         time.Now,
		broadcaster: newChangeBroadcaster(),
	}
	if cacheService != nil && serializer != nil {
		r.repo = repositorycache.New(base, cacheService, serializer)
		r.cacheService = cacheService
		r.cachePrefix = bundleCacheNamespace + cache.KeySeparator
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

var _ Repository = (*BunRepository)(nil)

func (r *BunRepository) Get(ctx context.Context, namespace, language string) (Record, error) {
	namespace, language, err := normalizeAddress(namespace, language)
	if err != nil {
		return Record{}, err
	}
	key := identity.BundleKey(namespace, language)
	model, err := r.repo.GetByIdentifier(ctx, key)
	if err != nil {
		return Record{}, mapRepositoryError(err, key)
	}
	return modelToRecord(model), nil
}

// List returns records ordered by key.
func (r *BunRepository) List(ctx context.Context) ([]Record, error) {
	models, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.bundle_key ASC")
		}),
	)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(models))
	for _, model := range models {
		records = append(records, modelToRecord(model))
	}
	return records, nil
}

// Upsert creates or replaces the stored bundle. An unchanged checksum skips
// the write and emits no event.
func (r *BunRepository) Upsert(ctx context.Context, namespace, language string, tree *bundle.Node) (Record, error) {
	record, err := buildRecord(namespace, language, tree)
	if err != nil {
		return Record{}, err
	}

	existing, err := r.base.GetByIdentifier(ctx, record.Key)
	created := false
	if err != nil {
		if !goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return Record{}, err
		}
		created = true
	}
	if !created && existing.Checksum == record.Checksum {
		return modelToRecord(existing), nil
	}

	now := r.now().UTC()
	model := modelFromRecord(record)
	model.UpdatedAt = now

	if created {
		model.CreatedAt = now
		if _, err := r.base.Create(ctx, model); err != nil {
			return Record{}, err
		}
	} else {
		model.ID = existing.ID
		model.CreatedAt = existing.CreatedAt
		if _, err := r.base.Update(ctx, model,
			repository.UpdateByID(model.ID.String()),
			repository.UpdateColumns("payload", "checksum", "updated_at"),
		); err != nil {
			return Record{}, err
		}
	}
	if err := r.InvalidateCache(ctx); err != nil {
		return Record{}, err
	}

	stored := modelToRecord(model)
	eventType := ChangeUpdated
	if created {
		eventType = ChangeCreated
	}
	r.broadcaster.Broadcast(newChangeEvent(eventType, stored))
	return stored, nil
}

func (r *BunRepository) Delete(ctx context.Context, namespace, language string) error {
	namespace, language, err := normalizeAddress(namespace, language)
	if err != nil {
		return err
	}
	key := identity.BundleKey(namespace, language)
	existing, err := r.base.GetByIdentifier(ctx, key)
	if err != nil {
		return mapRepositoryError(err, key)
	}
	if err := r.base.Delete(ctx, &translationBundle{ID: existing.ID}); err != nil {
		return err
	}
	if err := r.InvalidateCache(ctx); err != nil {
		return err
	}
	r.broadcaster.Broadcast(newChangeEvent(ChangeDeleted, modelToRecord(existing)))
	return nil
}

// Subscribe delivers change events until the context is cancelled.
func (r *BunRepository) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	return r.broadcaster.Subscribe(ctx)
}

// InvalidateCache drops cached reads. It is a no-op without a cache layer.
func (r *BunRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

// Close ends all subscriptions.
func (r *BunRepository) Close() {
	r.broadcaster.Close()
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return fmt.Errorf("%w: %s", ErrBundleNotFound, key)
	}
	return fmt.Errorf("catalog repository error: %w", err)
}

func modelFromRecord(record Record) *translationBundle {
	return &translationBundle{
		ID:        record.ID,
		BundleKey: record.Key,
		Namespace: record.Namespace,
		Language:  record.Language,
		Payload:   record.Payload,
		Checksum:  record.Checksum,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func modelToRecord(model *translationBundle) Record {
	if model == nil {
		return Record{}
	}
	return Record{
		ID:        model.ID,
		Key:       model.BundleKey,
		Namespace: model.Namespace,
		Language:  model.Language,
		Payload:   model.Payload,
		Checksum:  model.Checksum,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
