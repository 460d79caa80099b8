package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bert-gateway/models"
	"bert-gateway/services"
)

func newExecCmd(load loadFunc) *cobra.Command {
	var (
		language string
		argsJSON string
		timeout  time.Duration
		memory   int64
		debug    bool
	)

	cmd := &cobra.Command{
		Use:   "exec <function>",
		Short: "Run one function locally and print the result",
		Example: `  bert-gateway exec sum --args '[1, 2, 3, 4, 5]'
  bert-gateway exec max --language julia --args '[1.5, 2.5]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, base, err := load()
			if err != nil {
				return err
			}
			logger := logrus.NewEntry(base)

			params, err := parseArgs(argsJSON)
			if err != nil {
				return err
			}

			registry, closers, err := buildRegistry(cfg, logger)
			defer func() { closeAll(closers, logger) }()
			if err != nil {
				return err
			}

			svc := services.NewExecutionService(registry, services.ExecutionServiceOptions{
				DefaultTimeout:     cfg.Worker.DefaultTimeout.Duration,
				MaxTimeout:         cfg.Worker.MaxTimeout.Duration,
				DefaultMemoryLimit: cfg.Worker.DefaultMemoryLimit,
				Logger:             logger,
			})

			req := &models.ExecuteRequest{
				FunctionName: args[0],
				Language:     language,
				Parameters:   params,
				ExecutionContext: &models.ExecutionSettings{
					Timeout:     timeout.Milliseconds(),
					MemoryLimit: memory,
					Debug:       debug,
				},
			}
			result, err := svc.Execute(cmd.Context(), services.NewCall(req, "cli"))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "r", "language runtime")
	cmd.Flags().StringVar(&argsJSON, "args", "", "arguments as a JSON array")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "execution timeout (0 uses the configured default)")
	cmd.Flags().Int64Var(&memory, "memory", 0, "memory limit in bytes (0 uses the configured default)")
	cmd.Flags().BoolVar(&debug, "debug", false, "debug mode")
	return cmd
}

// parseArgs decodes --args, a JSON array of scalars
func parseArgs(argsJSON string) ([]models.TypedValue, error) {
	if argsJSON == "" {
		return nil, nil
	}
	var params []models.TypedValue
	if err := json.Unmarshal([]byte(argsJSON), &params); err != nil {
		return nil, fmt.Errorf("invalid --args: %w", err)
	}
	return params, nil
}
