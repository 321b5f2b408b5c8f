package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/doodlesbykumbi/pawguardian/pkg/config"
	"github.com/doodlesbykumbi/pawguardian/pkg/db"
	"github.com/doodlesbykumbi/pawguardian/pkg/llm"
	"github.com/doodlesbykumbi/pawguardian/pkg/media"
	"github.com/doodlesbykumbi/pawguardian/pkg/monitor"
	"github.com/doodlesbykumbi/pawguardian/pkg/notify"
	"github.com/doodlesbykumbi/pawguardian/pkg/secrets"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/store"
	gormstore "github.com/doodlesbykumbi/pawguardian/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/pawguardian/pkg/tools"
)

// appOptions selects how the dependencies are built
type appOptions struct {
	// Offline replaces Vertex AI with the rule agent and a static observer,
	// and Secret Manager with the environment
	Offline bool
	// Observation is the static observer answer in offline mode
	Observation string
}

// app holds the wired dependencies shared by the server and monitor commands
type app struct {
	Config  *config.Config
	Monitor *monitor.Monitor
	Signer  *media.CachingSigner
	Health  store.HealthStore
	Secrets *secrets.Cache

	closers []func() error
}

// newApp connects to the database, the secret source, the models and cloud
// storage according to cfg
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("invalid scenarios: %w", err)
	}

	a := &app{Config: cfg}

	runs, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	src, err := a.openSecrets(ctx, opts.Offline)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Secrets = secrets.NewCache(src)

	toolbox := &tools.Toolbox{
		Secrets:  a.Secrets,
		Dial:     notify.Dial,
		MusicURL: cfg.MusicURL,
	}

	m := &monitor.Monitor{
		Catalog:  catalog,
		Executor: toolbox,
		Store:    runs,
	}

	if opts.Offline {
		if opts.Observation != "" {
			m.Observer = llm.StaticObserver(opts.Observation)
		} else {
			m.Observer = m.OfflineObserver()
		}
		m.Agent = monitor.RuleAgent{}
		a.Signer = media.NewCachingSigner(media.PublicSigner{}, cfg.SignedURLLifetime())
		log.Println("Running offline: rule agent, canned observations, public video URLs")
	} else {
		vertex, err := llm.NewVertex(ctx, cfg.ProjectID, cfg.Location, cfg.ModelID)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, vertex.Close)
		m.Observer = vertex
		m.Agent = vertex

		signer, err := a.openSigner(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Signer = media.NewCachingSigner(signer, cfg.SignedURLLifetime())
	}

	a.Monitor = m
	return a, nil
}

func (a *app) openStore(ctx context.Context) (store.RunsStore, error) {
	if !db.Configured() {
		log.Println("DATABASE_URL not set, keeping run history in memory")
		mem := store.NewMemoryStore()
		a.Health = mem
		return mem, nil
	}

	gdb, err := db.Connect(ctx, db.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)
	a.Health = gormstore.NewHealthStore(gdb)
	return gormstore.NewRunsStore(gdb), nil
}

func (a *app) openSecrets(ctx context.Context, offline bool) (secrets.Source, error) {
	if offline || a.Config.SecretsSource == config.SecretsSourceEnv {
		return secrets.EnvSource{}, nil
	}
	sm, err := secrets.NewSecretManagerSource(ctx, a.Config.ProjectID)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, sm.Close)
	return sm, nil
}

func (a *app) openSigner(ctx context.Context) (media.Signer, error) {
	email := a.Config.ServiceAccountEmail
	if email == "" {
		detected, err := media.DetectServiceAccount(ctx)
		switch {
		case err == nil:
			email = detected
		case errors.Is(err, media.ErrNoServiceAccount):
		default:
			log.Printf("Service account detection failed, relying on the storage client: %v", err)
		}
	}
	gcs, err := media.NewGCSSigner(ctx, email)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, gcs.Close)
	return gcs, nil
}

// Close releases every client opened by newApp, last opened first
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
	a.closers = nil
}
