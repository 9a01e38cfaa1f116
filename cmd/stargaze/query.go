package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lewtec/stargaze/internal/analytics"
	"github.com/lewtec/stargaze/internal/repository"
)

func printRow(cmd *cobra.Command, fields ...string) {
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(fields, "\t"))
}

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query database [seen|banned|favorites|authors]",
	Short: "Queries the collections database",
	Long: `Dumps a collection from a stargaze database as tab separated
values, newest entry first. Without a collection name it lists the
collections and their sizes.`,
	Args: cobra.RangeArgs(1, 2),
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

		if len(args) < 2 {
			printRow(cmd, "collection", "entries")
			printRow(cmd, "seen", fmt.Sprint(len(cols.Seen)))
			printRow(cmd, "banned", fmt.Sprint(len(cols.Banned)))
			printRow(cmd, "favorites", fmt.Sprint(len(cols.Favorites)))
			return nil
		}

		switch args[1] {
		case "seen":
			printRow(cmd, "id", "date", "title")
			for _, entry := range cols.Seen {
				printRow(cmd, entry.ID, entry.Date, entry.Title)
			}
		case "banned":
			printRow(cmd, "id", "date", "title")
			for _, entry := range cols.Banned {
				printRow(cmd, entry.ID, entry.Date, entry.Title)
			}
		case "favorites":
			printRow(cmd, "id", "date", "rating", "media_type", "copyright", "title")
			for _, entry := range cols.Favorites {
				printRow(cmd, entry.ID, entry.Date, fmt.Sprint(entry.Rating), entry.MediaType, entry.Copyright, entry.Title)
			}
		case "authors":
			printRow(cmd, "author", "favorites", "mean_rating")
			for _, author := range analytics.TopAuthors(cols.Favorites) {
				printRow(cmd, author.Name, fmt.Sprint(author.Count), fmt.Sprintf("%.1f", author.MeanRating))
			}
		default:
			return fmt.Errorf("unknown collection %q", args[1])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
