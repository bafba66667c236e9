// Package cli implements the feedsink commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dbPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "feedsink",
	Short: "Categorized ingestion of a live JSONL feed",
	Long:  "Tails an append-only JSONL event file into a categorized SQLite store with live per-category analytics.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $SQLITE_DB_PATH)")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return os.Getenv("SQLITE_DB_PATH")
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
