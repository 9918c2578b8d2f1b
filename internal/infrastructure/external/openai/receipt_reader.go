package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/vitingo/advance-workflow/internal/application/port"
)

// ChatClient is the part of the OpenAI client the reader uses
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ReceiptReader implements port.ReceiptReader with a vision model
type ReceiptReader struct {
	client  ChatClient
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// Config holds OpenAI settings
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	PromptsPath string
}

// NewClient creates an OpenAI API client
func NewClient(cfg Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// NewReceiptReader creates a reader. A nil prompts value uses the defaults.
func NewReceiptReader(client ChatClient, model string, prompts *PromptConfig, logger *zap.Logger) *ReceiptReader {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &ReceiptReader{client: client, model: model, prompts: prompts, logger: logger}
}

var _ port.ReceiptReader = (*ReceiptReader)(nil)

// ReadReceipt extracts line fields from a receipt image
func (r *ReceiptReader) ReadReceipt(ctx context.Context, image []byte, mimeType string) (*port.ReceiptSuggestion, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	r.logger.Info("Reading receipt with Vision API", zap.String("mime_type", mimeType), zap.Int("bytes", len(image)))

	cfg := r.prompts.ReceiptReading
	prompt, err := renderTemplate(cfg.UserTemplate, map[string]string{"Currencies": "TRY, EUR, USD, GBP"})
	if err != nil {
		return nil, err
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: cfg.System,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image)),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		r.logger.Error("Vision API call failed", zap.Error(err))
		return nil, fmt.Errorf("vision API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from Vision API")
	}

	suggestion, err := parseSuggestion(resp.Choices[0].Message.Content)
	if err != nil {
		r.logger.Error("Failed to parse Vision API response",
			zap.Error(err),
			zap.String("content", resp.Choices[0].Message.Content))
		return nil, err
	}

	r.logger.Info("Receipt read",
		zap.String("supplier", suggestion.Supplier),
		zap.String("amount", suggestion.Amount),
		zap.Float64("confidence", suggestion.Confidence))
	return suggestion, nil
}

// rawSuggestion accepts amounts the model returns as numbers
type rawSuggestion struct {
	Date        string          `json:"date"`
	Supplier    string          `json:"supplier"`
	Amount      json.RawMessage `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Confidence  float64         `json:"confidence"`
}

func parseSuggestion(content string) (*port.ReceiptSuggestion, error) {
	var raw rawSuggestion
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		// Fallback: the model wrapped the object in prose or a code fence
		jsonStr := extractJSON(content)
		if jsonStr == "" {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &port.ReceiptSuggestion{
		Date:        strings.TrimSpace(raw.Date),
		Supplier:    strings.TrimSpace(raw.Supplier),
		Amount:      normalizeAmount(raw.Amount),
		Currency:    strings.ToUpper(strings.TrimSpace(raw.Currency)),
		Description: strings.TrimSpace(raw.Description),
		Confidence:  confidence,
	}, nil
}

// normalizeAmount turns "1.250,50", "1250.50" or 1250.5 into a dot decimal
func normalizeAmount(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if unquoted := strings.Trim(s, `"`); unquoted != s {
		s = strings.TrimSpace(unquoted)
	}
	s = strings.TrimFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '.' && r != ','
	})
	if strings.Contains(s, ",") {
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	return s
}

// extractJSON returns the first balanced JSON object in content
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	for i := start; i < len(content); i++ {
		switch c := content[i]; {
		case c == '\\' && inString:
			i++
		case c == '"':
			inString = !inString
		case c == '{' && !inString:
			depth++
		case c == '}' && !inString:
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
