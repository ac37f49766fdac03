package main

import (
	"fmt"
	"imgtools/pdfinfo"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.pdf>...",
	Short: "Validate PDFs and print their page count and sizes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			info, err := pdfinfo.InspectFile(path)
			if err != nil {
				failed++
				fmt.Printf("%s: invalid: %v\n", path, err)
				continue
			}
			fmt.Printf("%s: %d page(s)\n", path, info.Pages)
			for i, size := range info.Sizes {
				fmt.Printf("  page %d: %.2f x %.2f pt\n", i+1, size.Width, size.Height)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed validation", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
