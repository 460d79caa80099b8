package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bert-gateway/config"
	"bert-gateway/rpc"
	"bert-gateway/services"

	_ "bert-gateway/docs"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

// @title BERT Gateway API
// @version 1.0
// @description Multi-language function execution gateway
// @host localhost:8080
// @BasePath /api
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "bert-gateway",
		Short:         "Run functions in R, Julia or Python over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", getEnv("BERT_CONFIG", ""), "path to a TOML config file")

	load := func() (*config.Config, *logrus.Logger, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		logger, err := newLogger(cfg.Log, os.Stderr)
		if err != nil {
			return nil, nil, err
		}
		return cfg, logger, nil
	}

	serve := newServeCmd(load)
	root.AddCommand(serve, newWorkerCmd(load), newExecCmd(load), newVersionCmd())
	// no subcommand means serve
	root.RunE = serve.RunE
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bert-gateway %s\n", version)
		},
	}
}

type loadFunc func() (*config.Config, *logrus.Logger, error)

func newLogger(cfg config.LogConfig, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// buildRegistry registers every configured runtime. Runtimes with an
// endpoint are reached over gRPC; the returned closers release those
// connections.
func buildRegistry(cfg *config.Config, logger *logrus.Entry) (*services.Registry, []io.Closer, error) {
	registry := services.NewRegistry()
	var closers []io.Closer

	for _, name := range cfg.RuntimeNames() {
		rc := cfg.Runtimes[name]
		dialect, err := services.LookupDialect(rc.Dialect)
		if err != nil {
			return nil, closers, fmt.Errorf("runtime %s: %w", name, err)
		}

		var worker services.Worker
		if rc.Endpoint != "" {
			remote, err := rpc.Dial(rc.Endpoint)
			if err != nil {
				return nil, closers, fmt.Errorf("runtime %s: failed to dial %s: %w", name, rc.Endpoint, err)
			}
			closers = append(closers, remote)
			worker = remote
			logger.WithFields(logrus.Fields{"language": name, "endpoint": rc.Endpoint}).Info("Using remote worker")
		} else {
			worker = newProcessWorker(cfg, name, rc, dialect, logger)
		}

		displayName := rc.DisplayName
		if displayName == "" {
			displayName = strings.ToUpper(name[:1]) + name[1:]
		}
		registry.Register(&services.Language{
			Name:        name,
			DisplayName: displayName,
			Dialect:     dialect,
			Worker:      worker,
			Preamble:    rc.Preamble,
			Functions:   services.DefaultCatalog(name, rc.Dialect),
		})
	}
	return registry, closers, nil
}

func newProcessWorker(cfg *config.Config, name string, rc config.RuntimeConfig, dialect services.Dialect, logger *logrus.Entry) *services.ProcessWorker {
	return services.NewProcessWorker(services.Runtime{
		Name:               name,
		Binary:             rc.Binary,
		Args:               rc.Args,
		ScriptMode:         services.ScriptMode(rc.ScriptMode),
		InlineFlag:         rc.InlineFlag,
		Extension:          rc.Extension,
		EnforceMemoryLimit: rc.MemoryLimitEnforced(),
		Env:                rc.Env,
	}, dialect, services.ProcessWorkerOptions{
		TempDir:        cfg.Worker.TempDir,
		DefaultTimeout: cfg.Worker.DefaultTimeout.Duration,
		MaxOutputBytes: cfg.Worker.MaxOutputBytes,
		Logger:         logger.WithField("component", "worker"),
	})
}

func closeAll(closers []io.Closer, logger *logrus.Entry) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.WithError(err).Warn("Close failed")
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
