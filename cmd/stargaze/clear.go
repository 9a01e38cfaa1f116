package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lewtec/stargaze/internal/repository"
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear database",
	Short: "Wipe every collection from a database",
	Long: `Deletes the seen history, the banned list and the favorites from
a stargaze database. There is no undo, so it refuses to run without
the --yes flag.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed, err := cmd.Flags().GetBool("yes")
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("refusing to clear %s without --yes", args[0])
		}

		db, err := repository.Open(args[0])
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repository.RunMigrations(db); err != nil {
			return err
		}

		return repository.NewCollectionRepository(db).Clear(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().BoolP("yes", "y", false, "Confirm that everything should be deleted")
}
