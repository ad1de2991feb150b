package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	digestModel = openai.ChatModelGPT5Mini2025_08_07

	initialTokenBudget int64 = 256
	maxTokenBudget     int64 = 1024

	digestInstructions = `You write the body of a desktop notification about new email.
Condense the listed messages into one sentence of at most 20 words.
Name a sender or topic only when it helps the reader decide whether to open their mail.
Plain text only: no lists, greetings, emojis or links.
Answer in the language of the messages.`
)

var (
	ErrEmptyInput = errors.New("input is empty")
	ErrIncomplete = errors.New("response is incomplete")
)

// OpenAISummarizer asks the Responses API for a one-sentence digest.
type OpenAISummarizer struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAISummarizer(apiKey string, opts ...option.RequestOption) (*OpenAISummarizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("API key is empty")
	}

	return &OpenAISummarizer{
		client: openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
		model:  digestModel,
	}, nil
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, input Input) (string, error) {
	prompt, err := digestPrompt(input)
	if err != nil {
		return "", err
	}

	text, err := s.respond(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarize %d mailbox(es): %w", max(len(input.Accounts), 1), err)
	}

	return text, nil
}

func digestPrompt(input Input) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", ErrEmptyInput
	}

	var prompt strings.Builder
	switch len(input.Accounts) {
	case 0:
	case 1:
		prompt.WriteString("Mailbox: " + input.Accounts[0] + "\n")
	default:
		prompt.WriteString("Mailboxes (" + strconv.Itoa(len(input.Accounts)) + "): ")
		prompt.WriteString(strings.Join(input.Accounts, ", "))
		prompt.WriteString("\n")
	}
	prompt.WriteString("New messages:\n")
	prompt.WriteString(text)

	return prompt.String(), nil
}

// respond retries with a doubled token budget while the model runs out of
// output tokens.
func (s *OpenAISummarizer) respond(ctx context.Context, prompt string) (string, error) {
	for budget := initialTokenBudget; ; budget = min(budget*2, maxTokenBudget) {
		resp, err := s.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           s.model,
			MaxOutputTokens: openai.Int(budget),
			Reasoning:       responses.ReasoningParam{Effort: openai.ReasoningEffortLow},
			Instructions:    openai.String(digestInstructions),
			Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
		})
		if err != nil {
			return "", fmt.Errorf("create response: %w", err)
		}

		if resp.Status == "incomplete" {
			reason := resp.IncompleteDetails.Reason
			if reason == "max_output_tokens" && budget < maxTokenBudget {
				continue
			}

			return "", fmt.Errorf("%w: reason %s, budget %d", ErrIncomplete, reason, budget)
		}

		if digest := singleLine(resp.OutputText()); digest != "" {
			return digest, nil
		}

		return "", fmt.Errorf("no output text (status %s)", resp.Status)
	}
}

func singleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
