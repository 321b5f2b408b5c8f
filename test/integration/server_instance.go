package integration

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/doodlesbykumbi/pawguardian/pkg/config"
	pgdb "github.com/doodlesbykumbi/pawguardian/pkg/db"
	"github.com/doodlesbykumbi/pawguardian/pkg/llm"
	"github.com/doodlesbykumbi/pawguardian/pkg/media"
	"github.com/doodlesbykumbi/pawguardian/pkg/monitor"
	"github.com/doodlesbykumbi/pawguardian/pkg/notify"
	"github.com/doodlesbykumbi/pawguardian/pkg/scenario"
	"github.com/doodlesbykumbi/pawguardian/pkg/secrets"
	"github.com/doodlesbykumbi/pawguardian/pkg/server"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/endpoints"
	gormstore "github.com/doodlesbykumbi/pawguardian/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/pawguardian/pkg/tools"
)

// ServerConfig holds configuration for a test PawGuardian server instance
type ServerConfig struct {
	// Observation is what the offline observer answers for every video
	Observation string
	// APITokenKey enables bearer token checks on POST /api/runs
	APITokenKey string
}

// ServerInstance represents a running PawGuardian server for a single scenario
type ServerInstance struct {
	Server        *server.Server
	ServerURL     string
	Port          int
	Config        ServerConfig
	cancel        context.CancelFunc
	done          chan struct{}
	serverProcess *exec.Cmd // For binary mode
}

// StartServer creates and starts a new offline server instance backed by the
// test database. This supports both inline and binary modes based on how
// the test suite was started.
func StartServer(tc *TestContext, cfg ServerConfig) (*ServerInstance, error) {
	if tc.Mode == modeInline {
		return startInlineServerInstance(tc.DatabaseURL, cfg)
	}
	return startBinaryServerInstance(tc.BinaryPath, tc.DatabaseURL, cfg)
}

// freePort asks the kernel for a port the binary can bind to
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// noSecrets makes every Twilio credential missing so interventions fail
// without reaching the network
func noSecrets(string) (string, bool) {
	return "", false
}

// startInlineServerInstance starts an in-process server
func startInlineServerInstance(dbURL string, cfg ServerConfig) (*ServerInstance, error) {
	ctx, cancel := context.WithCancel(context.Background())

	db, err := pgdb.Connect(ctx, pgdb.Config{URL: dbURL, MaxOpenConns: 4})
	if err != nil {
		cancel()
		return nil, err
	}

	m := &monitor.Monitor{
		Catalog:  scenario.MustBuiltinCatalog(),
		Observer: llm.StaticObserver(cfg.Observation),
		Agent:    monitor.RuleAgent{},
		Executor: &tools.Toolbox{
			Secrets:  secrets.NewCache(secrets.EnvSource{Lookup: noSecrets}),
			Dial:     notify.Dial,
			MusicURL: config.DefaultMusicURL,
		},
		Store: gormstore.NewRunsStore(db),
	}

	serverCfg := &config.Config{
		SignedURLTTL: 3600,
		MusicURL:     config.DefaultMusicURL,
		APITokenKey:  cfg.APITokenKey,
	}
	signer := media.NewCachingSigner(media.PublicSigner{}, serverCfg.SignedURLLifetime())

	s := server.NewServer(serverCfg, m, signer, gormstore.NewHealthStore(db), "127.0.0.1", "0")
	endpoints.RegisterAll(s)

	listener, err := net.Listen("tcp", s.Addr())
	if err != nil {
		cancel()
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	done := make(chan struct{})

	instance := &ServerInstance{
		Server:    s,
		ServerURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		Port:      port,
		Config:    cfg,
		cancel:    cancel,
		done:      done,
	}

	go func() {
		defer close(done)
		_ = s.Serve(ctx, listener)
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := waitForServer(ctx, instance.ServerURL, 10*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return instance, nil
}

// startBinaryServerInstance starts `pawguardian server --offline`
func startBinaryServerInstance(binaryPath, dbURL string, cfg ServerConfig) (*ServerInstance, error) {
	port, err := freePort()
	if err != nil {
		return nil, err
	}
	portStr := strconv.Itoa(port)

	configDir, err := os.MkdirTemp("", "pawguardian-config")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	cmd := exec.CommandContext(ctx, binaryPath, "server",
		"--offline", "--no-migrate",
		"-b", "127.0.0.1", "-p", portStr,
		"--observation", cfg.Observation,
	)
	cmd.Env = append(os.Environ(),
		"DATABASE_URL="+dbURL,
		"PAWGUARDIAN_CONFIG_PATH="+configDir,
		"PAWGUARDIAN_SECRETS_SOURCE=env",
		"PAWGUARDIAN_API_TOKEN_KEY="+cfg.APITokenKey,
		"TWILIO_ACCOUNT_SID=",
		"TWILIO_AUTH_TOKEN=",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		_ = os.RemoveAll(configDir)
		return nil, fmt.Errorf("failed to start binary: %w", err)
	}

	instance := &ServerInstance{
		ServerURL:     fmt.Sprintf("http://127.0.0.1:%d", port),
		Port:          port,
		Config:        cfg,
		cancel:        func() { cancel(); _ = os.RemoveAll(configDir) },
		serverProcess: cmd,
	}

	if err := waitForServer(ctx, instance.ServerURL, 30*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return instance, nil
}

// Stop shuts down the server instance
func (si *ServerInstance) Stop() {
	if si.cancel != nil {
		si.cancel()
	}
	if si.done != nil {
		<-si.done
	}
	if si.serverProcess != nil && si.serverProcess.Process != nil {
		_ = si.serverProcess.Process.Kill()
		_ = si.serverProcess.Wait()
	}
}
