package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recent searches from the search log (needs DATABASE_URL)",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "how many recent searches to show")
}

func historyRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.logs == nil {
		return errors.New("search log disabled: set DATABASE_URL")
	}

	logs, err := a.logs.ListRecent(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("list search log: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TIME\tPROVIDER\tOK\tRESULTS\tDROPPED\tDURATION\tQUERY\n")
	for _, l := range logs {
		prov := l.Provider
		if prov == "" {
			prov = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%d\t%s\t%s\n",
			l.CreatedAt.Local().Format(time.DateTime),
			prov,
			l.Success,
			l.ResultCount,
			l.Dropped,
			l.Duration.Round(time.Millisecond),
			l.Query,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	counts, err := a.logs.CountByProvider(ctx)
	if err != nil {
		return fmt.Errorf("count by provider: %w", err)
	}
	if len(counts) == 0 {
		return nil
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stdout)
	for _, name := range names {
		fmt.Fprintf(os.Stdout, "%s: %d successful\n", name, counts[name])
	}
	return nil
}
