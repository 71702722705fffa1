// File: cmd/cache.go
package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"ctxgather/pkg/cache"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var knownNamespaces = []string{cache.NamespaceContext, cache.NamespaceLLM}

func newCacheCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the on-disk cache",
	}
	cmd.AddCommand(newCacheStatsCommand(a))
	cmd.AddCommand(newCacheClearCommand(a))
	return cmd
}

func newCacheStatsCommand(a *app) *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show record counts and sizes per namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openCache()
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}

			namespaces := knownNamespaces
			if namespace != "" {
				namespaces = []string{namespace}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache directory: %s\n\n", store.Dir())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAMESPACE\tENTRIES\tSIZE\tOLDEST\tNEWEST")
			for _, ns := range namespaces {
				st, err := store.Stats(ns)
				if err != nil {
					return fmt.Errorf("failed to read cache stats: %w", err)
				}
				writeStatsRow(tw, ns, st)
			}
			if namespace == "" {
				st, err := store.Stats("")
				if err != nil {
					return fmt.Errorf("failed to read cache stats: %w", err)
				}
				writeStatsRow(tw, "(all)", st)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "Only report this namespace")
	return cmd
}

func writeStatsRow(w io.Writer, name string, st cache.Stats) {
	oldest, newest := "-", "-"
	if st.Entries > 0 {
		oldest = humanize.Time(st.Oldest)
		newest = humanize.Time(st.Newest)
	}
	fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", name, st.Entries, humanize.Bytes(uint64(st.TotalBytes)), oldest, newest)
}

func newCacheClearCommand(a *app) *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openCache()
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}
			before, err := store.Stats(namespace)
			if err != nil {
				return fmt.Errorf("failed to read cache stats: %w", err)
			}
			if err := store.Clear(namespace); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}

			scope := "all namespaces"
			if namespace != "" {
				scope = "namespace " + namespace
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Cleared %d records (%s) from %s\n",
				before.Entries, humanize.Bytes(uint64(before.TotalBytes)), scope)
			return nil
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "Only clear this namespace")
	return cmd
}
