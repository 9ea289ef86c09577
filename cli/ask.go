package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question about the constitution",
	Long: `Answer one question. Quote a phrase in double quotes to look it up verbatim;
anything else goes through semantic search and the language model.

Examples:
  constitution ask "Quote Article 12"
  constitution ask 'What does "the right to a fair trial" mean?'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.ingest.Ingest(cmd.Context(), false); err != nil {
		logger.Warn("indexing failed, answers may be incomplete", zap.Error(err))
	}

	session := a.sessions.GetOrCreate("")
	resp := a.assistant.HandleTurn(cmd.Context(), session, strings.Join(args, " "))
	fmt.Fprintln(cmd.OutOrStdout(), resp.Answer)
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}
	return nil
}
