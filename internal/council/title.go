package council

import (
	"context"
	"fmt"
	"strings"

	"github.com/matheusbuniotto/openwebui-tools/internal/llmapi"
)

// GenerateTitle asks the chairperson's provider for a 3-5 word conversation
// title. Used by the host server when a conversation receives its first
// message.
func (c *Council) GenerateTitle(ctx context.Context, topicText string) (string, error) {
	prompt := fmt.Sprintf(`Generate a very short title (3-5 words maximum) that summarizes the following question.
The title should be concise and descriptive. Do not use quotes or punctuation in the title.

Question: %s

Title:`, topicText)

	model := c.settings.Chairperson
	if model == "" {
		model = firstModel(c.settings.Models)
	}
	if model == "" {
		return "", fmt.Errorf("no model configured for title generation")
	}

	answer, err := c.client.ChatCompletion(ctx, model, []llmapi.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("title generation failed: %w", err)
	}

	title := strings.Trim(strings.TrimSpace(answer), `"'`)
	if len(title) > 50 {
		title = title[:47] + "..."
	}
	return title, nil
}

func firstModel(models string) string {
	for _, m := range strings.Split(models, ",") {
		if m = strings.TrimSpace(m); m != "" && strings.ToLower(m) != "all" {
			return m
		}
	}
	return ""
}
