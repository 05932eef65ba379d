// Package summary talks to the external completion service that turns
// the current todo list into a short prose summary. The result is
// best-effort and never authoritative.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/BuzzLyutic/todo-board-api/internal/model"
)

const systemPrompt = "You are an assistant that summarizes a todo list."

// Client produces a prose summary of a todo list.
type Client interface {
	Summarize(ctx context.Context, todos []model.Task) (string, error)
}

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *OpenAIClient) Summarize(ctx context.Context, todos []model.Task) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Summarize the following todos:\n\n" + FormatTodos(todos)},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// FormatTodos renders the list as numbered "title - status" lines, the
// shape the prompt expects.
func FormatTodos(todos []model.Task) string {
	var b strings.Builder
	for i, t := range todos {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, t.Title, t.Status)
	}
	return b.String()
}
