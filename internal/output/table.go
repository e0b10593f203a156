package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/webrecon/webrecon/internal/core"
	"github.com/webrecon/webrecon/internal/core/backend"
)

// QuotaRow is one scope's usage for the quota table.
type QuotaRow struct {
	Scope     string        `json:"scope"`
	Capacity  int           `json:"capacity"`
	Period    time.Duration `json:"period"`
	Used      int           `json:"used"`
	Remaining int           `json:"remaining"`
}

// RenderQuotaTable renders per-scope quota usage.
func RenderQuotaTable(rows []QuotaRow) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Scope", "Capacity", "Period", "Used", "Remaining"})

	for _, row := range rows {
		t.AppendRow(table.Row{
			row.Scope,
			row.Capacity,
			row.Period.String(),
			row.Used,
			row.Remaining,
		})
	}

	return t.Render()
}

// RenderScrapeTable renders batch scrape outcomes in input order.
func RenderScrapeTable(results []core.TargetResult) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"URL", "Status", "Cache", "Notes"})

	succeeded := 0
	for _, r := range results {
		cache := ""
		if r.FromCache {
			cache = "hit"
		}
		notes := r.ErrorMessage()
		if r.Status == core.TargetRateLimited && r.RetryAfter > 0 {
			notes = fmt.Sprintf("retry in %s", r.RetryAfter.Round(time.Second))
		}
		if r.Status == core.TargetOK {
			succeeded++
		}
		t.AppendRow(table.Row{r.Target, string(r.Status), cache, notes})
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("%d/%d ok", succeeded, len(results)), "", ""})
	return t.Render()
}

// RenderBackendTable renders the failover registry's per-concern state.
func RenderBackendTable(statuses []backend.ConcernStatus) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Concern", "Backend", "Demoted Until", "Last Error"})

	for _, s := range statuses {
		be := "local"
		if s.UsingDistributed {
			be = "distributed"
		}
		demotedUntil := ""
		if !s.DemotedUntil.IsZero() {
			demotedUntil = s.DemotedUntil.UTC().Format(time.RFC3339)
		}
		t.AppendRow(table.Row{string(s.Concern), be, demotedUntil, s.LastError})
	}

	return t.Render()
}
