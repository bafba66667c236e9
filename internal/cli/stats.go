package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/feedsink/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the category summary of an existing database",
		Run:   runStats,
	}
	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	path := getDBPath()
	if path == "" {
		exitErr("stats", fmt.Errorf("no database path; pass --db or set SQLITE_DB_PATH"))
	}

	s, err := store.Open(path)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	summary, err := s.CategorySummary(cmd.Context())
	if err != nil {
		exitErr("category summary", err)
	}

	b, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(b))
}
