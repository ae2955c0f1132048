package client

import (
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	var system string

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a message to the coaching assistant",
		Long:  "Sends one chat message through the server-side model proxy.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runChat(args[0], system, outputJSON)
		},
	}

	cmd.Flags().StringVar(&system, "system", "", "Optional system prompt")

	return cmd
}

func runChat(message, system string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := api.Post("/api/chat", openai.ChatCompletionRequest{
		Messages: messages,
	})
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	var completion openai.ChatCompletionResponse
	if err := json.Unmarshal(resp.Raw, &completion); err != nil {
		return fmt.Errorf("failed to parse chat response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(completion, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(completion.Choices) == 0 {
		return fmt.Errorf("empty chat response")
	}

	fmt.Println(completion.Choices[0].Message.Content)
	return nil
}
