// Command availgrid drives a multi-date availability search from the
// terminal and prints the row, summary, and coverage-matrix views.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "availgrid",
	Short: "Hotel availability multi-search and aggregation",
	Long:  "availgrid queries a hotel-availability endpoint once per date range and aggregates the responses into a flat row table, a per-hotel summary, and a per-date cheapest-supplier coverage matrix.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
