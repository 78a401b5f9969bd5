package di

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-lingo/internal/catalog"
	"github.com/goliatone/go-lingo/internal/runtimeconfig"
)

func (c *Container) configureCatalog(ctx context.Context) error {
	if c.catalogRepo != nil {
		return nil
	}

	if c.bunDB == nil {
		db, err := openDB(c.Config.Catalog)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}

	if c.Config.Catalog.Migrate && c.migrations != nil {
		applied, err := applyMigrations(ctx, c.bunDB, c.migrations)
		if err != nil {
			return err
		}
		c.logger.Info("catalog.migrations.applied", "count", applied)
	}

	opts := []catalog.BunOption{catalog.WithBunClock(c.clock)}
	if c.Config.Catalog.CacheTTL > 0 || c.cacheService != nil {
		if err := c.configureCacheDefaults(); err != nil {
			return err
		}
		c.catalogRepo = catalog.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer, opts...)
		return nil
	}
	c.catalogRepo = catalog.NewBunRepository(c.bunDB, opts...)
	return nil
}

func (c *Container) configureCacheDefaults() error {
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if ttl := c.Config.Catalog.CacheTTL; ttl > 0 {
			cfg.TTL = ttl
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			return fmt.Errorf("di: catalog cache: %w", err)
		}
		c.cacheService = service
	}
	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func openDB(cfg runtimeconfig.CatalogConfig) (*bun.DB, error) {
	switch runtimeconfig.NormalizeDriver(cfg.Driver) {
	case "postgres":
		sqldb, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("di: open postgres catalog: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		sqldb, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("di: open sqlite catalog: %w", err)
		}
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	}
}

// applyMigrations executes every *.up.sql file under migrations in name order.
func applyMigrations(ctx context.Context, db *bun.DB, migrations fs.FS) (int, error) {
	var files []string
	err := fs.WalkDir(migrations, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".up.sql") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("di: list migrations: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return path.Base(files[i]) < path.Base(files[j]) })

	for _, file := range files {
		script, err := fs.ReadFile(migrations, file)
		if err != nil {
			return 0, fmt.Errorf("di: read migration %s: %w", file, err)
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return 0, fmt.Errorf("di: apply migration %s: %w", file, err)
		}
	}
	return len(files), nil
}
