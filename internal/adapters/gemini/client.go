package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/floroz/bidhub/internal/bot"
)

const defaultModel = "gemini-2.5-flash"

// Fallback strings. Generation is best effort: nothing here ever surfaces as
// an error, the caller always receives usable text.
const (
	unavailableReply       = "🤖 Bot: The AI assistant is currently unavailable."
	unavailableDescription = "AI service is not available. Please enter a description manually."
	failedDescription      = "Failed to generate AI description. Please write one manually."
)

// Client generates assistant replies and listing descriptions through the
// Gemini API. It implements bot.TextGenerator.
//
// With an empty API key the client stays constructed but degraded: every call
// returns the corresponding fallback string.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a Gemini-backed generator. An empty apiKey disables
// generation without failing construction.
func NewClient(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Client, error) {
	if model == "" {
		model = defaultModel
	}
	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY not set, AI features degraded to fallbacks")
		return &Client{model: model, logger: logger}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{client: client, model: model, logger: logger}, nil
}

// GenerateReply implements bot.TextGenerator.
func (c *Client) GenerateReply(ctx context.Context, req bot.ReplyRequest) string {
	if c.client == nil {
		return unavailableReply
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(replyPrompt(req)), nil)
	if err != nil {
		c.logger.Error("gemini reply generation failed", "product", req.Product.ID, "error", err)
		return bot.FallbackReply
	}

	text := result.Text()
	if text == "" {
		return bot.FallbackReply
	}
	return text
}

// GenerateDescription produces a short listing description for a new item.
func (c *Client) GenerateDescription(ctx context.Context, itemName string) string {
	if c.client == nil {
		return unavailableDescription
	}

	prompt := fmt.Sprintf(`Write a compelling and concise auction description for the following item: %q.
Highlight its potential key features and create a sense of value and urgency for bidders.
The description should be no more than 3-4 sentences.`, itemName)

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		c.logger.Error("gemini description generation failed", "item", itemName, "error", err)
		return failedDescription
	}

	text := result.Text()
	if text == "" {
		return failedDescription
	}
	return text
}

func replyPrompt(req bot.ReplyRequest) string {
	otherItems := "No other items are listed."
	if len(req.OtherListings) > 0 {
		names := make([]string, len(req.OtherListings))
		for i, p := range req.OtherListings {
			names[i] = "- " + p.Name
		}
		otherItems = strings.Join(names, "\n")
	}

	return fmt.Sprintf(`You are an automated assistant for an online auction seller named %s.

You are in a chat with a buyer about this specific item:
---
Item Name: %q
Item Description: %q
---

For additional context, here is a list of ALL other items the seller is currently listing:
---
%s
---

The buyer has just asked the following question: %q

Your task is to answer the buyer's question.
- Use the information from the specific item description first.
- If the question seems to be about other items (e.g., "do you have other jackets?", "what else are you selling?"), use the list of all items to answer. You can mention items from the list.
- Be friendly, helpful, and concise.
- If you cannot answer the question using any of the provided information, politely state that you do not have that detail.
- Always start your response with '🤖 Bot:'.`,
		req.Product.Seller.Name,
		req.Product.Name,
		req.Product.Description,
		otherItems,
		req.Question,
	)
}
