package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lewtec/stargaze/explorer"
	"github.com/lewtec/stargaze/internal/apod"
	"github.com/lewtec/stargaze/internal/engine"
	"github.com/lewtec/stargaze/internal/repository"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stargaze [folder|config.yaml]",
	Short: "Browse NASA's Astronomy Picture of the Day",
	Long: strings.TrimSpace(`
Fetch astronomy pictures from NASA's APOD feed, ban the ones you never
want to see again, rate the ones you love and explore what your
favorites say about you.
    `),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var configFile string

		if len(args) == 1 {
			arg := args[0]

			if stat, err := os.Stat(arg); err == nil && stat.IsDir() {
				// It's a folder - initialize it and exit
				log.Printf("Detected folder argument: %s", arg)
				return initializeProject(arg)
			}

			// Assume it's a config file
			configFile = arg
		} else {
			var err error
			configFile, err = cmd.Flags().GetString("config")
			if err != nil || configFile == "" {
				return fmt.Errorf("either provide a folder/config argument or use --config flag")
			}
		}

		config, err := explorer.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if databaseFile, _ := cmd.Flags().GetString("database"); databaseFile != "" {
			config.Storage.Path = databaseFile
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			config.Server.Addr = addr
		}

		db, err := repository.Open(config.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := repository.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to prepare database: %w", err)
		}

		client := apod.NewClient(config.API.Key)
		if config.API.BaseURL != "" {
			client.BaseURL = config.API.BaseURL
		}

		eng, err := engine.New(cmd.Context(), client, repository.NewCollectionRepository(db), engine.Options{
			FeedStart:        config.Feed.StartDate,
			MaxBackwardSteps: config.Feed.MaxBackwardSteps,
		})
		if err != nil {
			return fmt.Errorf("failed to start engine: %w", err)
		}

		app := &explorer.ExplorerApp{
			Engine: eng,
			Config: config,
		}

		log.Printf("Configuration: %s", configFile)
		log.Printf("Database: %s", config.Storage.Path)
		log.Printf("Feed starts at: %s", config.Feed.StartDate)
		log.Printf("Starting server on: %s", config.Server.Addr)

		return http.ListenAndServe(config.Server.Addr, app.GetHTTPHandler())
	},
}

// initializeProject seeds a folder with a sample config and an empty
// database, then leaves the user to fill in their API key.
func initializeProject(folder string) error {
	configFile := filepath.Join(folder, "config.yaml")
	databaseFile := filepath.Join(folder, "stargaze.db")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Printf("Creating default config: %s", configFile)
		if err := createSampleConfig(configFile, databaseFile); err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}
	} else {
		log.Printf("Config file already exists: %s", configFile)
	}

	if _, err := os.Stat(databaseFile); os.IsNotExist(err) {
		log.Printf("Creating empty database: %s", databaseFile)
		db, err := repository.Open(databaseFile)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		defer db.Close()
		if err := repository.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to prepare database: %w", err)
		}
	} else {
		log.Printf("Database already exists: %s", databaseFile)
	}

	log.Printf("Project initialized. Set api.key in %s, then run: stargaze %s", configFile, configFile)
	return nil
}

func createSampleConfig(filename, databaseFile string) error {
	sampleConfig := fmt.Sprintf(`# stargaze configuration file

api:
  # Get a free key at https://api.nasa.gov (DEMO_KEY works but is
  # heavily rate limited).
  key: "DEMO_KEY"

server:
  addr: ":8080"

storage:
  path: %q

feed:
  # First date the APOD feed knows about.
  start_date: "1995-06-16"
  # How many days the engine walks backward past banned dates before
  # giving up on a discovery.
  max_backward_steps: 365
`, databaseFile)

	return os.WriteFile(filename, []byte(sampleConfig), 0644)
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatalf("Error executing command: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringP("config", "c", "", "Config file path")
	rootCmd.Flags().StringP("database", "d", "", "Database file path (overrides storage.path)")
	rootCmd.Flags().StringP("addr", "a", "", "Address to bind the webserver (overrides server.addr)")
}
