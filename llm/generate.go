// Package llm turns an issue description into a set of generated
// files via a chat completion in JSON-object mode.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const systemPrompt = `You are a Python code generator.

- Write only Python code, no other languages.
- If the requested solution should be a web application, implement it with Streamlit.
- Always generate a Dockerfile that can build and run the produced Python code
  (including Streamlit UI if present). Place the Dockerfile at the repository root
  and name it "Dockerfile".
- Generate all files that are required for the program (multiple .py files,
  requirements.txt, README.md, etc.).
- Return the result as a single JSON object where each key is the filename
  (relative to the repository root) and each value is the complete file content.
- Do not include any additional text, explanations or markdown; the output
  must be pure JSON.`

type Generator struct {
	client openai.Client
	model  string
}

// New builds a Generator. baseURL may be empty for the public API.
func New(apiKey, baseURL, model string) *Generator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Generator{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Demo asks the model for a demo implementation of prompt and returns
// the generated files as path -> content.
func (g *Generator) Demo(ctx context.Context, prompt string) (map[string]string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0.2),
	}

	compl, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("requesting completion: %w", err)
	}
	if len(compl.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}

	content := compl.Choices[0].Message.Content
	var files map[string]string
	if err := json.Unmarshal([]byte(content), &files); err != nil {
		return nil, fmt.Errorf("decoding model output: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("model returned no files")
	}
	return files, nil
}

// Prompt builds the per-issue prompt the way the demonstrator expects
// it: issue header, body, then the task line.
func Prompt(number int, title, body string) string {
	return fmt.Sprintf("# Issue #%d: %s\n\n%s\n\n# Write a single Python script that satisfies the request.",
		number, title, body)
}
