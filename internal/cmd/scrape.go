package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/webrecon/webrecon/internal/core"
	"github.com/webrecon/webrecon/internal/core/engine"
	"github.com/webrecon/webrecon/internal/observability"
	"github.com/webrecon/webrecon/internal/output"
)

var (
	scrapeOutput string
	scrapeQuery  string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape URL [URL...]",
	Short: "Fetch and extract a batch of pages",
	Long: `Fetch a batch of URLs through the cache, quota, and bounded-concurrency
pipeline. Results come back in argument order; a failed or rate-limited URL
never takes the rest of the batch down with it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(scrapeOutput)
		if err != nil {
			return err
		}

		comps, err := buildComponents(cmd.Context(), observability.CLILogger)
		if err != nil {
			return err
		}
		cfg := comps.cfg

		if len(args) > cfg.Scrape.MaxTargets {
			return fmt.Errorf("batch size %d exceeds the maximum of %d URLs", len(args), cfg.Scrape.MaxTargets)
		}

		orchestrator := &engine.ScrapeOrchestrator{
			Cache:       comps.cache,
			Limiter:     comps.limiter,
			Scope:       core.ScopeScrape,
			Concurrency: cfg.Scrape.Concurrency,
			CacheTTL:    cfg.Cache.ScrapeTTL,
			KeyFor: func(target string) string {
				return engine.PageKey(target, scrapeQuery)
			},
		}

		ctx := cmd.Context()
		if cfg.Scrape.BatchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Scrape.BatchTimeout)
			defer cancel()
		}

		results, err := orchestrator.FetchAll(ctx, args, comps.fetcher.Fetch)
		if err != nil {
			return err
		}

		if format == output.FormatJSON {
			return output.WriteJSON(os.Stdout, scrapeResultsJSON(results))
		}
		fmt.Println(output.RenderScrapeTable(results))

		for _, r := range results {
			if r.Status != core.TargetOK {
				return errors.New("one or more targets failed")
			}
		}
		return nil
	},
}

// scrapeResultsJSON flattens target results for JSON output; the raw error
// type does not marshal.
func scrapeResultsJSON(results []core.TargetResult) []map[string]any {
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		entry := map[string]any{
			"url":        r.Target,
			"status":     string(r.Status),
			"from_cache": r.FromCache,
		}
		if len(r.Payload) > 0 {
			entry["page"] = json.RawMessage(r.Payload)
		}
		if msg := r.ErrorMessage(); msg != "" {
			entry["error"] = msg
		}
		if r.RetryAfter > 0 {
			entry["retry_after"] = r.RetryAfter.String()
		}
		out = append(out, entry)
	}
	return out
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&scrapeOutput, "output-format", string(output.FormatTable), "Output format: table|json")
	scrapeCmd.Flags().StringVar(&scrapeQuery, "query", "", "Tag the batch with an investigation query for cache keying")
}
