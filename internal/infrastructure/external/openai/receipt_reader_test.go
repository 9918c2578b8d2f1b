package openai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockChat struct {
	got     openai.ChatCompletionRequest
	content string
	err     error
}

func (m *mockChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.got = req
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: m.content}}},
	}, nil
}

func TestReceiptReader_ReadReceipt(t *testing.T) {
	chat := &mockChat{content: `{"date":"2024-03-05","supplier":" Migros ","amount":"1.250,50","currency":"try","description":"Stand malzemesi","confidence":0.92}`}
	reader := NewReceiptReader(chat, "", nil, zap.NewNop())

	got, err := reader.ReadReceipt(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "2024-03-05", got.Date)
	assert.Equal(t, "Migros", got.Supplier)
	assert.Equal(t, "1250.50", got.Amount)
	assert.Equal(t, "TRY", got.Currency)
	assert.InDelta(t, 0.92, got.Confidence, 0.0001)

	assert.Equal(t, openai.GPT4o, chat.got.Model)
	require.Len(t, chat.got.Messages, 2)
	parts := chat.got.Messages[1].MultiContent
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, "TRY, EUR, USD, GBP")
	assert.True(t, strings.HasPrefix(parts[1].ImageURL.URL, "data:image/jpeg;base64,/9g="))
}

func TestReceiptReader_Errors(t *testing.T) {
	reader := NewReceiptReader(&mockChat{err: errors.New("rate limited")}, "gpt-4o-mini", nil, zap.NewNop())
	_, err := reader.ReadReceipt(context.Background(), []byte("x"), "image/png")
	assert.Error(t, err)

	_, err = reader.ReadReceipt(context.Background(), nil, "image/png")
	assert.Error(t, err)

	reader = NewReceiptReader(&mockChat{content: "sorry, no receipt here"}, "", nil, zap.NewNop())
	_, err = reader.ReadReceipt(context.Background(), []byte("x"), "image/png")
	assert.Error(t, err)
}

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		amount     string
		confidence float64
	}{
		{"plain object", `{"amount":"99.90","confidence":0.5}`, "99.90", 0.5},
		{"numeric amount", `{"amount":1250.5}`, "1250.5", 0},
		{"code fence", "```json\n{\"amount\":\"12,00 €\",\"confidence\":3}\n```", "12.00", 1},
		{"thousands with comma", `{"amount":"1,250.00"}`, "1250.00", 0},
		{"brace inside string", `Here: {"supplier":"A {B}","amount":""}`, "", 0},
		{"null amount", `{"amount":null}`, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSuggestion(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.amount, got.Amount)
			assert.InDelta(t, tt.confidence, got.Confidence, 0.0001)
		})
	}
}

func TestLoadPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("receipt_reading:\n  temperature: 0.3\n  system: Sadece JSON yaz.\n"), 0o600))

	prompts, err := LoadPrompts(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, prompts.ReceiptReading.Temperature, 0.0001)
	assert.Equal(t, "Sadece JSON yaz.", prompts.ReceiptReading.System)
	assert.Equal(t, defaultUserTemplate, prompts.ReceiptReading.UserTemplate)
	assert.Equal(t, 1024, prompts.ReceiptReading.MaxTokens)

	_, err = LoadPrompts(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
