package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/chat-app/internal/ai"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the chat transcript",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := resolveHistory(cmd.Context(), historyProvider)
		if err != nil {
			return err
		}
		defer h.Close()

		msgs, err := h.Messages(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s session %s, %d messages\n", h.Provider(), h.SessionID(), len(msgs))
		for _, m := range msgs {
			printMessage(out, m)
		}
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lister, err := modelLister()
		if err != nil {
			return err
		}
		selected := ""
		if rec, err := store.Read(); err == nil && rec != nil {
			selected, _ = rec.Model()
		}
		for _, m := range ai.ModelsOrFallback(cmd.Context(), lister, logger) {
			mark := " "
			if m == selected {
				mark = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, m)
		}
		return nil
	},
}
