package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webrecon/webrecon/internal/core"
	"github.com/webrecon/webrecon/internal/observability"
	"github.com/webrecon/webrecon/internal/output"
)

var (
	searchOutput     string
	searchTimeframe  string
	searchMaxResults int
	searchSites      []string
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Run a quota-limited web search",
	Long: `Run a web search through the shared quota and pacer. A "week" timeframe
falls back to year and then to no restriction when results are too thin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(searchOutput)
		if err != nil {
			return err
		}

		comps, err := buildComponents(cmd.Context(), observability.CLILogger)
		if err != nil {
			return err
		}

		decision, err := comps.limiter.Allow(cmd.Context(), core.ScopeSearch)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return fmt.Errorf("search quota exhausted, retry in %s", decision.RetryAfter)
		}

		query := args[0]
		if len(searchSites) > 0 {
			filters := make([]string, 0, len(searchSites))
			for _, site := range searchSites {
				if site = strings.TrimSpace(site); site != "" {
					filters = append(filters, "site:"+site)
				}
			}
			if len(filters) == 1 {
				query += " " + filters[0]
			} else if len(filters) > 1 {
				query = fmt.Sprintf("%s (%s)", query, strings.Join(filters, " OR "))
			}
		}

		maxResults := searchMaxResults
		if maxResults <= 0 {
			maxResults = comps.cfg.Search.MaxResults
		}

		results, effective, err := comps.searcher.Search(cmd.Context(), query, maxResults, searchTimeframe)
		if err != nil {
			return err
		}

		if format == output.FormatJSON {
			return output.WriteJSON(os.Stdout, map[string]any{
				"query":               args[0],
				"effective_timeframe": effective,
				"results":             results,
				"count":               len(results),
			})
		}

		fmt.Printf("Timeframe: %s\n", effective)
		for _, result := range results {
			fmt.Println(result)
		}
		if len(results) == 0 {
			fmt.Println("(no results)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchOutput, "output-format", string(output.FormatTable), "Output format: table|json")
	searchCmd.Flags().StringVar(&searchTimeframe, "timeframe", "", "Restrict results: 24h|week|month|year")
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "Maximum results (defaults to config)")
	searchCmd.Flags().StringSliceVar(&searchSites, "site", nil, "Restrict to a domain (repeatable)")
}
