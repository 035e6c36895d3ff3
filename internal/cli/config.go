package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/chat-app/internal/settings"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := store.Read()
		if err != nil {
			return err
		}
		if rec == nil {
			d := settings.Default()
			rec = &d
		}
		b, err := json.MarshalIndent(rec, "", "    ")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s\n", store.Path(), b)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: "Change one setting. Keys: " + strings.Join(settings.Keys(), ", ") + `.
Use "null" to clear selected_model.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, raw := args[0], args[1]
		var value any = raw
		if key == "selected_model" && raw == "null" {
			value = nil
		}
		if err := store.Write(key, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
}
