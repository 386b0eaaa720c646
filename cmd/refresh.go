package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/mydos/internal/handler"
	"github.com/teemow/mydos/internal/instrumentation"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the cache from Notion",
		Long: `Fetch the open myDos due by the end of today from Notion and replace the
cached entry, exactly like a request to the refresh-cache route.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadConfig(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			instrConfig := instrumentation.DefaultConfig()
			instrConfig.Enabled = false

			a, err := newApp(ctx, cfg, logger, instrConfig)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if err := a.handler.RefreshCache(ctx); err != nil {
				return fmt.Errorf("failed to refresh cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), handler.RefreshedMessage)
			return nil
		},
	}
}
