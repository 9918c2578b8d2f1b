package openai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the receipt prompt and its model parameters
type PromptConfig struct {
	ReceiptReading struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"receipt_reading"`
}

const defaultSystemPrompt = "You read Turkish and European expense receipts. You copy dates, supplier names, totals and currencies exactly as printed. Always respond with valid JSON."

const defaultUserTemplate = `Read this receipt and respond with ONLY a JSON object:
{
  "date": "YYYY-MM-DD",
  "supplier": "merchant name as printed",
  "amount": "grand total as a plain decimal using a dot, e.g. 1250.50",
  "currency": "ISO 4217 code such as {{ .Currencies }}",
  "description": "one short line in Turkish describing the purchase",
  "confidence": number between 0.0 and 1.0
}
Leave a field as an empty string when it is not readable.`

// DefaultPrompts returns the built-in prompt configuration
func DefaultPrompts() *PromptConfig {
	p := &PromptConfig{}
	p.ReceiptReading.Temperature = 0.1
	p.ReceiptReading.MaxTokens = 1024
	p.ReceiptReading.System = defaultSystemPrompt
	p.ReceiptReading.UserTemplate = defaultUserTemplate
	return p
}

// LoadPrompts reads prompt overrides from a YAML file. Fields missing from
// the file keep their built-in values.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	prompts := DefaultPrompts()
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	return prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
