// Package sync implements the one-shot sync command.
package sync

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/powerdraw/cmd/common"
)

// Command returns the sync command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one full ingestion pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			app, err := common.NewApp(deps)
			if err != nil {
				return fmt.Errorf("failed to build application: %w", err)
			}
			defer app.Close()

			result, err := app.Syncer.Sync(cmd.Context())
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			fmt.Printf("upserted %d draws\n", result.Upserted)
			for _, p := range result.Problems {
				fmt.Printf("problem: %s: %s\n", p.Scope, p.Error())
			}

			return nil
		},
	}
}
