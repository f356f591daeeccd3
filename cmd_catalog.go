package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dennissolver/LaunchReady-sub000/pkg/discovery"
)

var catalogFlags struct {
	json bool
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the protection-item catalog in classifier scan order",
	RunE:  runCatalog,
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogFlags.json, "json", false, "Print JSON instead of a table")
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	items := discovery.DefaultCatalog().Items()
	out := cmd.OutOrStdout()

	if catalogFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tCATEGORY\tNAME")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Key, item.Category, item.Name)
	}
	return tw.Flush()
}
