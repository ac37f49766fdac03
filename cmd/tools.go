package main

import (
	"fmt"
	"imgtools/converter"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available conversion tools",
	Run: func(cmd *cobra.Command, args []string) {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TOOL\tACCEPTS\tPRODUCES\tMULTIPLE")
		for _, t := range converter.Tools {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", t.Name, strings.Join(t.Accepts, ","), t.Produces, t.Multiple)
		}
		tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
