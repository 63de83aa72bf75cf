package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"
	"golang.org/x/crypto/acme/autocert"

	"github.com/jmcleod/lela/api"
	"github.com/jmcleod/lela/internal/util"
	"github.com/jmcleod/lela/storage"
	bboltstorage "github.com/jmcleod/lela/storage/bbolt"
	"github.com/jmcleod/lela/storage/memory"
	"github.com/jmcleod/lela/storage/postgres"
	"github.com/jmcleod/lela/web"
)

const postgresDSNEnv = "LELA_POSTGRES_DSN"

var (
	port           int
	dataDir        string
	storageKind    string
	postgresDSN    string
	tlsCert        string
	tlsKey         string
	autocertDomain string
	logFormat      string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		memguard.CatchInterrupt()
		defer memguard.Purge()

		logger, err := newLogger(logFormat, os.Stderr)
		if err != nil {
			return err
		}

		secrets, err := loadSecretStore(adminSecretFile)
		if err != nil {
			return err
		}
		defer secrets.Destroy()
		if !secrets.Configured() {
			logger.Warn("admin secret not configured; login is disabled", "env", secretEnv)
		}

		repo, closeRepo, err := openRepository(cmd.Context(), storageKind, dataDir, postgresDSN)
		if err != nil {
			return err
		}
		defer closeRepo()

		a := api.New(repo, secrets,
			api.WithLogger(logger),
			api.WithAlertFunc(func(e api.AlertEvent) {
				logger.Warn("security alert",
					"type", string(e.Type),
					"message", e.Message,
					"count", e.Count,
					"threshold", e.Threshold)
			}),
		)

		webHandler, err := web.Handler()
		if err != nil {
			return err
		}

		tlsConfig, err := serverTLSConfig(logger)
		if err != nil {
			return err
		}

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           a.Handler(webHandler),
			TLSConfig:         tlsConfig,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		logger.Info("server started", "port", port, "storage", storageKind, "data_dir", dataDir)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntVarP(&port, "port", "p", 8443, "Port to listen on")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory for persistent data")
	serverCmd.Flags().StringVar(&storageKind, "storage", "bbolt", "Story storage backend: bbolt, memory or postgres")
	serverCmd.Flags().StringVar(&postgresDSN, "postgres-dsn", os.Getenv(postgresDSNEnv), "PostgreSQL connection string (default $"+postgresDSNEnv+")")
	serverCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	serverCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
	serverCmd.Flags().StringVar(&autocertDomain, "autocert-domain", "", "Obtain a certificate for this domain from Let's Encrypt")
	serverCmd.Flags().StringVar(&logFormat, "log-format", "json", "Log format: json or text")
}

func newLogger(format string, w io.Writer) (*slog.Logger, error) {
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, nil)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, nil)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want json or text)", format)
	}
}

// openRepository opens the configured story backend. The returned func
// releases it.
func openRepository(ctx context.Context, kind, dir, dsn string) (storage.Repository, func(), error) {
	switch kind {
	case "bbolt":
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		repo, err := bboltstorage.NewRepositoryFromFile(filepath.Join(dir, "stories.db"), &bbolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open story storage: %w", err)
		}
		return repo, func() { repo.Close() }, nil
	case "memory":
		return memory.NewRepository(), func() {}, nil
	case "postgres":
		if dsn == "" {
			return nil, nil, fmt.Errorf("--postgres-dsn or $%s is required for postgres storage", postgresDSNEnv)
		}
		repo, err := postgres.NewRepositoryFromDSN(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open story storage: %w", err)
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q (want bbolt, memory or postgres)", kind)
	}
}

// serverTLSConfig picks, in order: a configured key pair, an ACME
// certificate for --autocert-domain, or a self-signed certificate.
func serverTLSConfig(logger *slog.Logger) (*tls.Config, error) {
	switch {
	case tlsCert != "" && tlsKey != "":
		cert, err := tls.LoadX509KeyPair(tlsCert, tlsKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
		}
		return &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}, nil
	case autocertDomain != "":
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(autocertDomain),
			Cache:      autocert.DirCache(filepath.Join(dataDir, "autocert")),
		}
		cfg := m.TLSConfig()
		cfg.MinVersion = tls.VersionTLS12
		logger.Info("using ACME certificates", "domain", autocertDomain)
		return cfg, nil
	default:
		cert, err := util.GenerateSelfSignedCert()
		if err != nil {
			return nil, fmt.Errorf("failed to generate self-signed certificate: %w", err)
		}
		logger.Warn("using self-signed runtime generated certificate for TLS")
		return &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}, nil
	}
}
