package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webrecon/webrecon/internal/core"
	"github.com/webrecon/webrecon/internal/observability"
	"github.com/webrecon/webrecon/internal/output"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Inspect and reset quota windows",
}

var (
	quotaListOutput string
	quotaResetScope string
	quotaResetAll   bool
	quotaResetYes   bool
	quotaStatusOut  string
)

var quotaListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current-window usage for every scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(quotaListOutput)
		if err != nil {
			return err
		}

		comps, err := buildComponents(cmd.Context(), observability.CLILogger)
		if err != nil {
			return err
		}

		rows := make([]output.QuotaRow, 0, len(core.Scopes))
		for _, scope := range core.Scopes {
			limit, ok := comps.limiter.Limits[scope]
			if !ok {
				continue
			}
			used, err := comps.limiter.Usage(cmd.Context(), scope)
			if err != nil {
				return err
			}
			remaining := limit.Capacity - used
			if remaining < 0 {
				remaining = 0
			}
			rows = append(rows, output.QuotaRow{
				Scope:     string(scope),
				Capacity:  limit.Capacity,
				Period:    limit.Period,
				Used:      used,
				Remaining: remaining,
			})
		}

		if format == output.FormatJSON {
			return output.WriteJSON(os.Stdout, rows)
		}
		fmt.Println(output.RenderQuotaTable(rows))
		return nil
	},
}

var quotaResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset quota windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		scopeArg := strings.TrimSpace(quotaResetScope)
		if quotaResetAll == (scopeArg != "") {
			return errors.New("exactly one of --scope or --all is required")
		}
		if quotaResetAll && !quotaResetYes {
			return errors.New("--all requires --yes")
		}

		comps, err := buildComponents(cmd.Context(), observability.CLILogger)
		if err != nil {
			return err
		}

		scopes := core.Scopes
		if scopeArg != "" {
			scope := core.Scope(scopeArg)
			if !core.KnownScope(scope) {
				return fmt.Errorf("unknown scope %q", scopeArg)
			}
			scopes = []core.Scope{scope}
		}

		for _, scope := range scopes {
			if err := comps.limiter.Reset(cmd.Context(), scope); err != nil {
				return err
			}
			fmt.Printf("Reset quota window for %s\n", scope)
		}
		return nil
	},
}

var quotaStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend failover state per concern",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(quotaStatusOut)
		if err != nil {
			return err
		}

		comps, err := buildComponents(cmd.Context(), observability.CLILogger)
		if err != nil {
			return err
		}

		statuses := comps.registry.Status()
		if format == output.FormatJSON {
			return output.WriteJSON(os.Stdout, statuses)
		}
		fmt.Println(output.RenderBackendTable(statuses))
		return nil
	},
}

func init() {
	quotaCmd.AddCommand(quotaListCmd)
	quotaCmd.AddCommand(quotaResetCmd)
	quotaCmd.AddCommand(quotaStatusCmd)
	rootCmd.AddCommand(quotaCmd)

	quotaListCmd.Flags().StringVar(&quotaListOutput, "output-format", string(output.FormatTable), "Output format: table|json")
	quotaResetCmd.Flags().StringVar(&quotaResetScope, "scope", "", "Reset a single scope")
	quotaResetCmd.Flags().BoolVar(&quotaResetAll, "all", false, "Reset every scope")
	quotaResetCmd.Flags().BoolVar(&quotaResetYes, "yes", false, "Confirm destructive reset")
	quotaStatusCmd.Flags().StringVar(&quotaStatusOut, "output-format", string(output.FormatTable), "Output format: table|json")
}
