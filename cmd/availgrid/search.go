package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/alex-user-go/availgrid/internal/obs"
	"github.com/alex-user-go/availgrid/internal/proxy"
	"github.com/alex-user-go/availgrid/internal/search"
	"github.com/alex-user-go/availgrid/internal/search/types"
	"github.com/alex-user-go/availgrid/internal/supplier"
)

var searchCommand = &cobra.Command{
	Use:   "search",
	Short: "Run one availability query per date range and print the aggregate views",
	RunE:  runSearch,
}

var (
	searchEndpoint string
	searchMethod   string
	searchToken    string
	searchHotelIDs string
	searchDates    []string
	searchBodyFile string
	searchSort     string
	searchDir      string
	searchRPS      float64
	searchVerbose  bool
)

func init() {
	searchCommand.Flags().StringVarP(&searchEndpoint, "endpoint", "e", "", "Availability API endpoint URL (required)")
	searchCommand.Flags().StringVar(&searchMethod, "method", "POST", "HTTP method for the upstream call")
	searchCommand.Flags().StringVar(&searchToken, "token", "", "Authorization token (optional, defaults to AVAILGRID_TOKEN env var)")
	searchCommand.Flags().StringVar(&searchHotelIDs, "hotel-ids", "", "Comma-separated hotel ids")
	searchCommand.Flags().StringArrayVarP(&searchDates, "dates", "d", nil, "Date range as checkIn:checkOut (YYYY-MM-DD, repeatable)")
	searchCommand.Flags().StringVar(&searchBodyFile, "body", "", "Path to a JSON request template file")
	searchCommand.Flags().StringVar(&searchSort, "sort", "", "Sort rows by hotelId or price")
	searchCommand.Flags().StringVar(&searchDir, "dir", "asc", "Sort direction: asc or desc")
	searchCommand.Flags().Float64Var(&searchRPS, "rps", 2, "Maximum upstream calls per second")
	searchCommand.Flags().BoolVarP(&searchVerbose, "verbose", "v", false, "Log every upstream call")

	rootCmd.AddCommand(searchCommand)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	if searchEndpoint == "" {
		return fmt.Errorf("--endpoint is required")
	}
	if searchToken == "" {
		searchToken = os.Getenv("AVAILGRID_TOKEN")
	}

	ranges, err := parseRanges(searchDates)
	if err != nil {
		return err
	}

	template, err := loadTemplate(searchBodyFile)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if searchVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	runner := search.NewRunner(
		proxy.NewHTTPClient(0),
		rate.NewLimiter(rate.Limit(searchRPS), 1),
		obs.NewMetrics(),
		logger,
	)
	runner.OnProgress = func(p search.Progress) {
		if p.Total > 0 {
			fmt.Fprintf(os.Stderr, "searching %d/%d\r", p.Current, p.Total)
		}
	}

	start := time.Now()
	responses, err := runner.Run(cmd.Context(), search.RunParams{
		Template:   template,
		Endpoint:   searchEndpoint,
		Method:     searchMethod,
		Token:      searchToken,
		DateRanges: ranges,
		HotelIDs:   searchHotelIDs,
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	lookup := supplier.Default
	rows, skipped := search.Normalize(responses, lookup)

	sortState, err := parseSort(searchSort, searchDir)
	if err != nil {
		return err
	}
	rows = sortState.Apply(rows)

	printRows(rows)
	printSummary(search.Summarize(responses, lookup))
	printMatrix(search.BuildMatrix(responses, searchHotelIDs, lookup))

	fmt.Printf("\n%d calls, %d rows, %d offers skipped, %s\n",
		len(responses), len(rows), skipped, time.Since(start).Round(time.Millisecond))
	return nil
}

func parseRanges(args []string) ([]types.DateRange, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one --dates checkIn:checkOut range is required")
	}
	ranges := make([]types.DateRange, 0, len(args))
	for _, s := range args {
		checkIn, checkOut, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("invalid date range %q, want checkIn:checkOut", s)
		}
		ranges = append(ranges, types.DateRange{CheckIn: checkIn, CheckOut: checkOut})
	}
	return ranges, nil
}

func loadTemplate(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	var template map[string]any
	if err := json.Unmarshal(data, &template); err != nil {
		return nil, fmt.Errorf("template is not a JSON object: %w", err)
	}
	return template, nil
}

func parseSort(key, dir string) (search.SortState, error) {
	state := search.SortState{}
	switch key {
	case "":
		return state, nil
	case string(search.SortHotel), string(search.SortPrice):
		state.Key = search.SortKey(key)
	default:
		return state, fmt.Errorf("--sort must be hotelId or price")
	}
	switch dir {
	case string(search.Ascending), "":
		state.Dir = search.Ascending
	case string(search.Descending):
		state.Dir = search.Descending
	default:
		return state, fmt.Errorf("--dir must be asc or desc")
	}
	return state, nil
}

func printRows(rows []types.NormalizedRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOTEL\tSUPPLIER\tCHECK-IN\tCHECK-OUT\tROOM\tMEAL\tPRICE\tREFUNDABLE\tREFUND INFO")
	for _, r := range rows {
		refundable := "No"
		if r.Refundable {
			refundable = "Yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t%s\t%s\n",
			r.HotelID, r.Supplier, r.CheckIn, r.CheckOut, r.RoomType, r.Meal, r.Price, refundable, r.RefundInfo)
	}
	_ = w.Flush()
}

func printSummary(entries []types.HotelSummaryEntry) {
	fmt.Println("\nPer-hotel summary:")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOTEL\tDATES\tSUPPLIERS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.HotelID, strings.Join(e.Dates, ", "), strings.Join(e.Suppliers, ", "))
	}
	_ = w.Flush()
}

func printMatrix(m types.MatrixResult) {
	fmt.Printf("\nCheapest-supplier coverage (%d/%d requested hotels found):\n",
		m.FoundUniqueCount, m.RequestedCount)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	header := append([]string{"DATE"}, m.Suppliers...)
	fmt.Fprintln(w, strings.Join(append(header, "NOT FOUND"), "\t"))

	for _, entry := range m.Dates {
		cells := []string{entry.Date}
		for _, s := range m.Suppliers {
			cell := strconv.Itoa(entry.Counts[s])
			if entry.IsLeader(s) {
				cell += " *"
			}
			cells = append(cells, cell)
		}
		cells = append(cells, strconv.Itoa(m.NotFound[entry.Date]))
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	_ = w.Flush()
}
