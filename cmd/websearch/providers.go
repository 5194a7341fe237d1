package main

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kitbuilder587/websearch/internal/provider"
	"github.com/kitbuilder587/websearch/internal/search"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show which search providers are configured in the current environment",
	Args:  cobra.NoArgs,
	RunE:  providersRun,
}

func providersRun(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg := provider.NewRegistry(cfg.Providers.Credentials, cfg.Providers.Settings(), logger)
	creds := cfg.Providers.Credentials

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ORDER\tPROVIDER\tSTATUS\tTIMEOUT\tMISSING\n")

	for i, id := range cfg.Providers.Order {
		status := "configured"
		missing := "-"
		if !creds.Complete(id) {
			status = "not configured"
			missing = strings.Join(creds.Missing(id), ",")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, id, status, reg.Timeout(id), missing)
	}

	// известные, но выключенные через WEB_SEARCH_PROVIDERS
	for _, id := range search.KnownIdentities() {
		if slices.Contains(cfg.Providers.Order, id) {
			continue
		}
		fmt.Fprintf(w, "-\t%s\t%s\t%s\t-\n", id, "not in order", reg.Timeout(id))
	}
	return w.Flush()
}
