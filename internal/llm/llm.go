// Package llm wraps the Gemini SDK behind a small text-generation client
// that reports token usage for every call.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the default Gemini model for idea generation.
	DefaultModel = "gemini-2.5-flash"
)

// Client represents a client for interacting with the generative service.
// Construct one per run and pass it into the pipeline; there is no
// package-level singleton.
type Client struct {
	apiKey    string
	modelName string
	gClient   *genai.Client
}

// Usage reports token consumption for a single call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// TextGenerationOptions contains options for a single generation call.
type TextGenerationOptions struct {
	SystemInstructions string  // Optional system prompt
	MaxTokens          int32   // Maximum number of tokens to generate
	Temperature        float32 // Temperature for randomness (0.0 to 1.0)
	Model              string  // Model to use (optional, defaults to the client's model)
	ResponseJSON       bool    // Request application/json output
}

// NewClient creates a new LLM client. The API key is resolved from
// GEMINI_API_KEY (or alternatives), then viper's ai.gemini.api_key.
func NewClient(modelName string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			if apiKey = os.Getenv("GOOGLE_AI_API_KEY"); apiKey == "" {
				apiKey = viper.GetString("ai.gemini.api_key")
			}
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required; set GEMINI_API_KEY or ai.gemini.api_key in the config file")
	}

	if modelName == "" {
		modelName = viper.GetString("ai.gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		apiKey:    apiKey,
		modelName: modelName,
		gClient:   gClient,
	}, nil
}

// GenerateText generates text for the given prompt and returns the response
// together with token usage. An empty response is an error; callers that can
// tolerate malformed output must sanitize the returned text themselves.
func (c *Client) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, Usage, error) {
	if prompt == "" {
		return "", Usage{}, fmt.Errorf("prompt cannot be empty")
	}

	modelName := c.modelName
	if options.Model != "" {
		modelName = options.Model
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	var config *genai.GenerateContentConfig
	if options.MaxTokens > 0 || options.Temperature > 0 || options.ResponseJSON || options.SystemInstructions != "" {
		config = &genai.GenerateContentConfig{}
		if options.MaxTokens > 0 {
			config.MaxOutputTokens = options.MaxTokens
		}
		if options.Temperature > 0 {
			temp := options.Temperature
			config.Temperature = &temp
		}
		if options.ResponseJSON {
			config.ResponseMIMEType = "application/json"
		}
		if options.SystemInstructions != "" {
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: options.SystemInstructions}},
			}
		}
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to generate text: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", Usage{}, fmt.Errorf("empty response from LLM")
	}

	usage := Usage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return text, usage, nil
}

// GetModelName returns the model the client was configured with.
func (c *Client) GetModelName() string {
	return c.modelName
}
