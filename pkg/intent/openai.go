package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// systemPrompt fixes the extraction and pronoun-resolution rules for the
// AI classifier. The model must answer with JSON only; anything else is
// rejected by the strict decode and the caller falls back to rules.
const systemPrompt = `You are an intent parser for a voice assistant. Analyze user commands and extract:
1. Whether they want to send a message
2. Who the recipient is (including pronouns like "him", "her", "them")
3. What message to send

CRITICAL RULES FOR MESSAGE EXTRACTION:
- Extract CLEAN message content - remove command words and filler words
- Remove: "tell him", "remind him", "notify him", "saying", "that", "to" at start
- "send message to John saying that I won't" -> message: "I won't"
- "tell him that I'll be late" -> message: "I'll be late"
- "remind him to eat healthy food" -> message: "eat healthy food"

CONTEXT AND FOLLOW-UP RULES:
- Keywords "also", "and", "too", "plus" indicate FOLLOW-UP to same recipient
- If user says "him", "her", "them" without a name, ALWAYS use the LAST recipient from context
- If NO explicit recipient AND user says "also/and/too", use the LAST recipient
- For follow-up messages, ALWAYS resolve to the actual recipient name from context

EXAMPLES:
- "send message to Sara saying drink water" -> recipient: "sara", message: "drink water"
- "also notify him to eat healthy food" -> recipient from context, message: "eat healthy food"
- "how are you" -> action: "general_chat"

Respond ONLY with valid JSON:
{
  "action": "send_message" or "general_chat",
  "recipient": "name or context recipient",
  "message": "the actual content to send (cleaned of command words)",
  "confidence": 0.0 to 1.0,
  "reasoning": "brief explanation"
}`

var _ Classifier = (*OpenAI)(nil)

// OpenAI is the primary, AI-backed classifier.
type OpenAI struct {
	client openai.Client
	cfg    *Config
}

// NewOpenAI creates the AI classifier.
func NewOpenAI(opts ...Option) *OpenAI {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
	}
}

// Classify asks the model for a structured intent and parses it strictly.
// Transport and parse failures are returned as errors so the caller can
// fall back; they are never fatal.
func (o *OpenAI) Classify(ctx context.Context, utterance string, history []Exchange) (Result, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
	}

	if ctxMsg := contextMessage(history, o.cfg.MaxContext); ctxMsg != "" {
		messages = append(messages, openai.UserMessage(ctxMsg))
	}

	messages = append(messages, openai.UserMessage(
		fmt.Sprintf("Analyze this command: %q", utterance),
	))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(o.cfg.Model),
		Temperature: openai.Float(o.cfg.Temperature),
		MaxTokens:   openai.Int(o.cfg.MaxTokens),
	})
	if err != nil {
		return Result{}, fmt.Errorf("intent: chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Result{}, ErrNoChoices
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return Result{}, ErrNoChoices
	}

	result, err := decodeResult(content)
	if err != nil {
		return Result{}, err
	}

	o.cfg.Logger.Info("intent classified",
		"action", result.Action,
		"recipient", result.Recipient,
		"confidence", result.Confidence,
	)

	return result, nil
}

// decodeResult parses the model output as a strict schema decode.
func decodeResult(content string) (Result, error) {
	content = stripFence(content)

	var r Result
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return Result{}, fmt.Errorf("%w: %v (raw: %s)", ErrUnparseable, err, content)
	}

	switch r.Action {
	case ActionSendMessage, ActionGeneralChat:
	default:
		return Result{}, fmt.Errorf("%w: unknown action %q", ErrUnparseable, r.Action)
	}

	if r.Confidence < 0 || r.Confidence > 1 {
		return Result{}, fmt.Errorf("%w: confidence %v out of range", ErrUnparseable, r.Confidence)
	}

	return r, nil
}

// stripFence removes a markdown code fence if the model wrapped its JSON
// in one despite the instructions.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// contextMessage renders recent exchanges with their resolved recipients
// so the model can substitute pronouns.
func contextMessage(history []Exchange, max int) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > max {
		history = history[len(history)-max:]
	}

	var b strings.Builder
	b.WriteString("Recent conversation with recipients:\n")
	for _, e := range history {
		if e.Recipient != "" {
			fmt.Fprintf(&b, "User: %s [Recipient was: %s]\n", e.User, e.Recipient)
		} else {
			fmt.Fprintf(&b, "User: %s\n", e.User)
		}
	}
	b.WriteString("\nIMPORTANT: When the user says 'him', 'her', or 'also', use the LAST recipient from the context above.")

	return b.String()
}
