package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

// orphanUserCmd detaches a removed user's categories. Cached reports of that
// user are not invalidated and expire with the cache TTL.
func orphanUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orphan-user <user-id>",
		Short: "Detach every category of a removed user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			cfg, logger, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			if cfg.DataBackend == config.BackendMemory {
				logger.Warn("orphan-user against the memory backend has no lasting effect")
			}
			bcfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			res, err := backend.NewFactory(logger).CreateBackend(cmd.Context(), bcfg)
			if err != nil {
				return err
			}
			defer res.Cleanup()

			svc := services.NewCategoryService(res.Store, nil, services.WithLogger(logger))
			n, err := svc.OrphanOwner(cmd.Context(), core.UserID(id))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "orphaned %d categories of user %d\n", n, id)
			return nil
		},
	}
}
