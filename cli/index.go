package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var forceIndex bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the passage index",
	Long: `Load the constitution, split it into article-tagged passages and write their
embeddings to the configured vector store. An unchanged document is skipped
unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&forceIndex, "force", false, "rebuild the index even if the document is unchanged")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var bar *progressbar.ProgressBar
	a.indexer.Progress = func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		_ = bar.Set(done)
	}

	fmt.Printf("Indexing %s...\n", cfg.Document.Path)
	result, err := a.ingest.Ingest(cmd.Context(), forceIndex)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Passages: %d\n", result.Passages)
	if result.Skipped {
		fmt.Printf("  Document unchanged, index left as is (use --force to rebuild)\n")
	}
	fmt.Printf("  Store:    %s\n", cfg.Store.Type)
	return nil
}
