package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestBunRepository_CRUDEvents(t *testing.T) {
	db := newTestDB(t)
	repo := NewBunRepository(db)
	t.Cleanup(repo.Close)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "common", "en"); !errors.Is(err, ErrBundleNotFound) {
		t.Fatalf("expected ErrBundleNotFound, got %v", err)
	}

	events, err := repo.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if _, err := repo.Upsert(ctx, "common", "en", sampleTree("Save")); err != nil {
		t.Fatalf("Upsert() create error = %v", err)
	}
	assertEvent(t, events, ChangeCreated)

	if _, err := repo.Upsert(ctx, "common", "en", sampleTree("Save")); err != nil {
		t.Fatalf("Upsert() unchanged error = %v", err)
	}
	assertNoEvent(t, events)

	if _, err := repo.Upsert(ctx, "common", "en", sampleTree("Store")); err != nil {
		t.Fatalf("Upsert() update error = %v", err)
	}
	assertEvent(t, events, ChangeUpdated)

	fetched, err := repo.Get(ctx, "common", "en")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	tree, err := fetched.Tree()
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	if value, _ := tree.LookupString("save"); value != "Store" {
		t.Fatalf("Get() returned %q", value)
	}

	if err := repo.Delete(ctx, "common", "en"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	assertEvent(t, events, ChangeDeleted)

	if _, err := repo.Get(ctx, "common", "en"); !errors.Is(err, ErrBundleNotFound) {
		t.Fatalf("expected ErrBundleNotFound, got %v", err)
	}
}

func TestBunRepository_DeleteMissing(t *testing.T) {
	repo := NewBunRepository(newTestDB(t))

	if err := repo.Delete(context.Background(), "common", "en"); !errors.Is(err, ErrBundleNotFound) {
		t.Fatalf("expected ErrBundleNotFound, got %v", err)
	}
}

func TestBunRepository_WithCacheReads(t *testing.T) {
	db := newTestDB(t)
	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheSvc, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	repo := NewBunRepositoryWithCache(db, cacheSvc, repocache.NewDefaultKeySerializer())
	ctx := context.Background()

	for _, language := range []string{"fr", "en"} {
		if _, err := repo.Upsert(ctx, "common", language, sampleTree("Save "+language)); err != nil {
			t.Fatalf("upsert %s: %v", language, err)
		}
	}

	for range 2 {
		record, err := repo.Get(ctx, "common", "fr")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if record.Language != "fr" || record.Namespace != "common" {
			t.Fatalf("unexpected record %+v", record)
		}
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 || records[0].Key != "common/en" || records[1].Key != "common/fr" {
		t.Fatalf("unexpected list %+v", records)
	}
}

func TestBunRepository_WithCacheSeesUpdates(t *testing.T) {
	db := newTestDB(t)
	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Hour
	cacheSvc, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	repo := NewBunRepositoryWithCache(db, cacheSvc, repocache.NewDefaultKeySerializer())
	t.Cleanup(repo.Close)
	ctx := context.Background()

	read := func() string {
		t.Helper()
		record, err := repo.Get(ctx, "common", "en")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		tree, err := record.Tree()
		if err != nil {
			t.Fatalf("Tree() error = %v", err)
		}
		value, _ := tree.LookupString("save")
		return value
	}

	if _, err := repo.Upsert(ctx, "common", "en", sampleTree("Save")); err != nil {
		t.Fatalf("Upsert() create error = %v", err)
	}
	if got := read(); got != "Save" {
		t.Fatalf("expected Save, got %q", got)
	}

	if _, err := repo.Upsert(ctx, "common", "en", sampleTree("Store")); err != nil {
		t.Fatalf("Upsert() update error = %v", err)
	}
	if got := read(); got != "Store" {
		t.Fatalf("cached read not invalidated by update: got %q", got)
	}

	if err := repo.Delete(ctx, "common", "en"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "common", "en"); !errors.Is(err, ErrBundleNotFound) {
		t.Fatalf("cached read not invalidated by delete: %v", err)
	}
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open("sqlite3", fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared&_fk=1", name))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.NewCreateTable().Model((*translationBundle)(nil)).IfNotExists().Exec(ctx); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}
