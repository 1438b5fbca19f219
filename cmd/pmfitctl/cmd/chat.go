package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ankitjain91/pmfit-analyzer/internal/sources"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the startup advisor a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]interface{}{
			"messages": []sources.ChatMessage{
				{Role: "user", Content: strings.Join(args, " ")},
			},
		}

		resp, err := makeRequest("POST", "/v1/chat", body)
		if err != nil {
			return fmt.Errorf("chat request failed: %w", err)
		}
		var reply sources.ChatReply
		if err := readResponse(resp, &reply); err != nil {
			return err
		}

		if outputJSON {
			printOutput(reply)
			return nil
		}
		fmt.Println(reply.Content)
		if reply.Synthetic {
			fmt.Println("(advisor offline, canned reply)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
