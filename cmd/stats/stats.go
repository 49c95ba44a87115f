// Package stats implements the stats command that renders frequency,
// group, and prediction tables for the terminal.
package stats

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/powerdraw/cmd/common"
	internalstats "github.com/jonesrussell/powerdraw/internal/stats"
)

// Command returns the stats command.
func Command() *cobra.Command {
	var (
		window int
		limit  int
		groups []int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Render draw statistics as tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			app, err := common.NewApp(deps)
			if err != nil {
				return fmt.Errorf("failed to build application: %w", err)
			}
			defer app.Close()

			return render(cmd.Context(), app, window, groups, limit)
		},
	}

	cmd.Flags().IntVar(&window, "window", 0, "number of most-recent draws to consider (0 = all)")
	cmd.Flags().IntVar(&limit, "limit", 10, "rows per table")
	cmd.Flags().IntSliceVar(&groups, "groups", []int{2, 3}, "combination sizes to report")

	return cmd
}

// render prints the frequency, group, and prediction tables.
func render(ctx context.Context, app *common.App, window int, groups []int, limit int) error {
	freqs, err := app.Engine.Frequencies(ctx, window)
	if err != nil {
		return fmt.Errorf("frequencies: %w", err)
	}

	renderCounts("Main number frequencies", freqs.Mains, limit)
	renderCounts("Powerball frequencies", freqs.Powerball, limit)
	fmt.Printf("sample size: %d draws\n\n", freqs.SampleSize)

	groupResult, err := app.Engine.GroupStats(ctx, window, groups, limit)
	if err != nil {
		return fmt.Errorf("group stats: %w", err)
	}

	ks := make([]int, 0, len(groupResult.Groups))
	for k := range groupResult.Groups {
		ks = append(ks, k)
	}
	sort.Ints(ks)

	for _, k := range ks {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.SetTitle(fmt.Sprintf("Top %d-number groups", k))
		t.AppendHeader(table.Row{"Numbers", "Count"})
		for _, g := range groupResult.Groups[k] {
			t.AppendRow(table.Row{joinInts(g.Numbers), g.Count})
		}
		t.Render()
	}

	prediction, err := app.Engine.Predict(ctx, window)
	if err != nil {
		return fmt.Errorf("prediction: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Deterministic pick")
	t.AppendHeader(table.Row{"Domain", "Chosen", "Count", "Candidates"})
	t.AppendRow(table.Row{"mains", prediction.Mains.Chosen, prediction.Mains.Count, joinInts(prediction.Mains.Candidates)})
	t.AppendRow(table.Row{"powerball", prediction.Powerball.Chosen, prediction.Powerball.Count, joinInts(prediction.Powerball.Candidates)})
	t.Render()
	fmt.Println(prediction.Note)

	return nil
}

// renderCounts prints the top counted values of one domain.
func renderCounts(title string, counts map[int]int, limit int) {
	ranked := make([]internalstats.ValueCount, 0, len(counts))
	for value, count := range counts {
		ranked = append(ranked, internalstats.ValueCount{Value: value, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Value < ranked[j].Value
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Number", "Count"})
	for _, vc := range ranked {
		t.AppendRow(table.Row{vc.Value, vc.Count})
	}
	t.Render()
}

// joinInts formats a number list for table display.
func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, " ")
}
