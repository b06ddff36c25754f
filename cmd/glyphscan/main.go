// Command glyphscan finds exact and near-duplicate glyph feature vectors
// across JSON and NDJSON files.
//
//	glyphscan a.json b.ndjson.gz
//	glyphscan scan --threshold 0.999 --format json --out report.json glyphs/
//	glyphscan scan --store s3 --bucket corpus --prefix exports/ 2024/
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Set by the linker: -ldflags "-X main.version=v1.2.3".
var version = "dev"

func newRootCmd() *cobra.Command {
	flags := &scanFlags{}
	rootCmd := &cobra.Command{
		Use:   "glyphscan [files...]",
		Short: "Find exact and near-duplicate glyph vectors",
		Long: `glyphscan reads glyph records ({"id": ..., "vec": [...]}) from JSON arrays or
NDJSON files and reports

  - exact clusters: glyphs whose vectors agree to the configured precision
  - near-clones: glyph pairs with cosine similarity at or above the threshold

Running glyphscan with files and no subcommand is the same as "glyphscan scan".`,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, flags, args)
		},
	}
	bindScanFlags(rootCmd, flags)

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
