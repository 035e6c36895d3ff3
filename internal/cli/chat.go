package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/chat-app/internal/ai"
	"github.com/suPer8Hu/chat-app/internal/chat"
	"github.com/suPer8Hu/chat-app/internal/history"
)

var chatModel string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal",
	Long: `Chat in the terminal. The transcript is printed first, then each line
read from stdin is sent as a message and the reply streamed back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		conv, lister, err := newConversation(ctx, historyProvider)
		if err != nil {
			return err
		}
		defer conv.History().Close()

		if chatModel != "" {
			if err := conv.State().Select(chatModel, ai.ModelsOrFallback(ctx, lister, logger)); err != nil {
				return err
			}
			if err := store.Write("selected_model", chatModel); err != nil {
				return err
			}
		}
		model, ok := conv.State().SelectedModel()
		if !ok {
			return errors.New("no model selected; pass --model or run `chatapp config set selected_model <name>`")
		}

		out := cmd.OutOrStdout()
		msgs, err := conv.History().Messages(ctx)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			printMessage(out, m)
		}
		fmt.Fprintf(out, "[%s] type a message, Ctrl-D to quit\n", model)

		sc := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !sc.Scan() {
				fmt.Fprintln(out)
				return sc.Err()
			}
			text := strings.TrimSpace(sc.Text())
			if text == "" {
				continue
			}

			reply, err := conv.Submit(ctx, text)
			if err != nil {
				if errors.Is(err, chat.ErrGeneration) {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				return err
			}
			for reply.Next() {
				fmt.Fprint(out, reply.Token())
			}
			fmt.Fprintln(out)
			if err := reply.Err(); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
	},
}

func printMessage(w io.Writer, m history.Message) {
	fmt.Fprintf(w, "%s: %s\n", m.Role, m.Content)
}

func init() {
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "model to select before chatting")
}
