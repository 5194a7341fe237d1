package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kitbuilder587/websearch/internal/tool"
)

var errSearchFailed = errors.New("search failed")

var (
	searchCount    int
	searchProvider string
	searchNoLog    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one web search and print the tool output as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  searchRun,
}

func init() {
	searchCmd.Flags().IntVarP(&searchCount, "count", "n", 0, "number of results (1-20, default 5)")
	searchCmd.Flags().StringVarP(&searchProvider, "provider", "p", "", "force a single provider: google, brave or xai")
	searchCmd.Flags().BoolVar(&searchNoLog, "no-log", false, "do not write the search log even if DATABASE_URL is set")
}

func searchRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, !searchNoLog)
	if err != nil {
		return err
	}
	defer a.Close()

	in := tool.Input{
		Query:    strings.Join(args, " "),
		Provider: searchProvider,
	}
	if cmd.Flags().Changed("count") {
		n := float64(searchCount)
		in.Count = &n
	}

	out := a.tool.Run(ctx, in)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	if out.IsError {
		fmt.Fprintln(os.Stderr, out.Content)
		return errSearchFailed
	}
	return nil
}
