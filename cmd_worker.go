package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bert-gateway/rpc"
	"bert-gateway/services"
)

func newWorkerCmd(load loadFunc) *cobra.Command {
	var (
		language string
		listen   string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Host one language runtime over gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, base, err := load()
			if err != nil {
				return err
			}
			logger := logrus.NewEntry(base)

			name := strings.ToLower(language)
			rc, ok := cfg.Runtimes[name]
			if !ok {
				return fmt.Errorf("no runtime configured for language %q", language)
			}
			if rc.Binary == "" {
				return fmt.Errorf("runtime %s has no local binary", name)
			}
			dialect, err := services.LookupDialect(rc.Dialect)
			if err != nil {
				return err
			}

			lis, err := rpc.Listen(listen)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", listen, err)
			}
			worker := newProcessWorker(cfg, name, rc, dialect, logger)
			server := rpc.NewGRPCServer(rpc.NewServer(name, worker, logger))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.WithFields(logrus.Fields{"language": name, "addr": lis.Addr().String()}).Info("Worker host starting")
				return server.Serve(lis)
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("Shutting down worker host")
				server.GracefulStop()
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "r", "runtime to host")
	cmd.Flags().StringVar(&listen, "listen", getEnv("WORKER_LISTEN", ":50051"), "gRPC listen address")
	return cmd
}
