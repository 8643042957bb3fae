package cli

import (
	"errors"
	"fmt"

	"github.com/mwantia/grove/data"
	"github.com/spf13/cobra"
)

var exhaustive bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the workspace root and its configuration record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := workspace()
		if err != nil {
			return err
		}
		if err := ws.Init(); err != nil {
			return err
		}

		fmt.Printf("initialized workspace %s (scheme %s)\n", ws.Root(), ws.Scheme().Name())
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the naming invariant of all managed directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := workspace()
		if err != nil {
			return err
		}

		err = ws.Check(cmd.Context(), exhaustive)
		if err == nil {
			fmt.Println("workspace ok")
			return nil
		}

		var broken *data.BrokenError
		if errors.As(err, &broken) {
			fmt.Println("workspace broken:")
			for _, id := range broken.IDs {
				fmt.Printf("  %s\n", id)
			}
			if !broken.Exhaustive {
				fmt.Println("  (stopped at first corruption, use --exhaustive for the full set)")
			}
		}
		return err
	},
}

var repairCmd = &cobra.Command{
	Use:   "repair [id]...",
	Short: "Rename corrupted managed directories back to their computed identifiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := workspace()
		if err != nil {
			return err
		}
		if err := ws.Repair(cmd.Context(), args...); err != nil {
			return err
		}

		fmt.Println("workspace repaired")
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&exhaustive, "exhaustive", false, "Report every corrupted directory instead of the first")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(repairCmd)
}
