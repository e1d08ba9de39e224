package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"flight_bot/migrations"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the airport directory schema",
	Long: `Apply or roll back the embedded goose migrations of the airport
directory database.

Examples:
  migrate up                      # Migrate to the latest version
  migrate --db ./data/test.db status`,
	SilenceUsage: true,
}

func gooseCommand(use, short string, run func(db *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := sql.Open("sqlite", dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() { _ = db.Close() }()

			if err := migrations.Setup(); err != nil {
				return err
			}
			if err := run(db); err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			return nil
		},
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", envOrDefault("DATABASE_PATH", "./data/airports.db"), "path to sqlite database")

	rootCmd.AddCommand(
		gooseCommand("up", "Migrate to the latest version", func(db *sql.DB) error { return goose.Up(db, ".") }),
		gooseCommand("up-one", "Migrate one version up", func(db *sql.DB) error { return goose.UpByOne(db, ".") }),
		gooseCommand("down", "Roll back one version", func(db *sql.DB) error { return goose.Down(db, ".") }),
		gooseCommand("status", "Show migration status", func(db *sql.DB) error { return goose.Status(db, ".") }),
		gooseCommand("version", "Show current version", func(db *sql.DB) error { return goose.Version(db, ".") }),
		gooseCommand("reset", "Roll back all migrations", func(db *sql.DB) error { return goose.Reset(db, ".") }),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
