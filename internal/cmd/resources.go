package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/merittools/aktiva-client/pkg/endpoint"
	"github.com/spf13/cobra"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List the extractable Aktiva resources",
	Run: func(cmd *cobra.Command, args []string) {
		listResources()
	},
}

func init() {
	rootCmd.AddCommand(resourcesCmd)
}

func listResources() {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RESOURCE\tPATH\tMODE")

	for _, ep := range endpoint.Catalog() {
		mode := "full"
		if ep.Incremental {
			mode = color.GreenString("incremental")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", ep.Name, ep.RequestPath(), mode)
	}
	w.Flush()
}
