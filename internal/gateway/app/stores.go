package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"

	sessioncache "interviewprep/internal/cache/session"
	"interviewprep/internal/gateway/config"
	resumerepo "interviewprep/internal/gateway/repository/resume"
	sessionrepo "interviewprep/internal/gateway/repository/session"
	"interviewprep/internal/observability"
)

type gatewayStores struct {
	sessions sessionrepo.Store
	resumes  resumerepo.Store
	db       *sql.DB
}

func (s *gatewayStores) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initStores(ctx context.Context, cfg *config.Config) (*gatewayStores, error) {
	stores := &gatewayStores{}

	var origin sessionrepo.Store
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		db, err := OpenDatabase(ctx, dsn, cfg.DatabaseConnectTimeout)
		if err != nil {
			return nil, err
		}
		pg := sessionrepo.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate session schema: %w", err)
		}
		stores.db = db
		origin = pg
		observability.Logger().Info("session store: postgres")
	} else {
		origin = sessionrepo.NewMemoryStore()
		observability.Logger().Info("session store: in-memory")
	}
	cacheCfg := sessioncache.DefaultCacheConfig()
	if cfg.Cache.SessionEntries > 0 {
		cacheCfg.SessionMaxEntries = cfg.Cache.SessionEntries
	}
	stores.sessions = sessioncache.NewCachedStore(origin, cacheCfg)

	resumes, err := chooseResumeStore(cfg)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	stores.resumes = resumes
	return stores, nil
}

func chooseResumeStore(cfg *config.Config) (resumerepo.Store, error) {
	if !cfg.Artifact.CanUseS3() {
		if strings.TrimSpace(cfg.Artifact.Endpoint) != "" {
			observability.Logger().Warn("resume store: using in-memory fallback (s3 config incomplete)")
		}
		return resumerepo.NewMemoryStore(), nil
	}
	s3Cfg := resumerepo.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
	}
	store, err := resumerepo.NewS3Store(s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resume s3 store: %w", err)
	}
	observability.Logger().Info("resume store: s3", "bucket", s3Cfg.Bucket, "endpoint", s3Cfg.Endpoint)
	return store, nil
}

// OpenDatabase opens a pgx-backed *sql.DB and retries the first ping with
// exponential backoff until timeout elapses.
func OpenDatabase(ctx context.Context, dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = timeout

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			observability.Logger().Warn("database ping failed", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach db: %w", err)
	}
	return db, nil
}
