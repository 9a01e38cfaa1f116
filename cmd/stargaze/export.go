package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/spf13/cobra"

	"github.com/lewtec/stargaze/internal/export"
	"github.com/lewtec/stargaze/internal/repository"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export database folder",
	Short: "Export the favorites collection as a report",
	Long: `Writes favorites.md and favorites.html into the given folder,
built from the favorites stored in a stargaze database.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := repository.Open(args[0])
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repository.RunMigrations(db); err != nil {
			return err
		}

		cols, err := repository.NewCollectionRepository(db).Load(cmd.Context())
		if err != nil {
			return err
		}

		if err := os.MkdirAll(args[1], 0777); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}

		exporter := export.NewExporter(osfs.New(args[1]))
		if err := exporter.WriteFavoritesReport(cols.Favorites, time.Now()); err != nil {
			return err
		}

		log.Printf("Exported %d favorites to %s", len(cols.Favorites), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
