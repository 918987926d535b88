package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/config"
)

// OpenAIModel is a ChatModel backed by an OpenAI-compatible chat completions
// endpoint. Any provider exposing /chat/completions with function calling
// works behind it.
type OpenAIModel struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Tools       []wireTool    `json:"tools,omitempty"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAIModel creates a chat model from config. The API key is read from
// the environment variable named by cfg.APIKeyEnv.
func NewOpenAIModel(cfg *config.LLMConfig) (*OpenAIModel, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("LLM API key not set (env %s)", cfg.APIKeyEnv)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIModel{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      apiKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

// Chat sends the conversation and tool specs, returning the assistant's next
// message with any tool calls decoded.
func (m *OpenAIModel) Chat(ctx context.Context, messages []Message, tools []ToolSpec) (*Message, error) {
	reqBody := chatRequest{
		Model:       m.model,
		Messages:    toWireMessages(messages),
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
		Tools:       toWireTools(tools),
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling chat API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading chat response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, fmt.Errorf("decoding chat response (status %d): %w", resp.StatusCode, err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("chat API error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("chat API returned no choices")
	}

	return fromWireMessage(chatResp.Choices[0].Message), nil
}

func toWireMessages(messages []Message) []wireMessage {
	wire := make([]wireMessage, len(messages))
	for i, msg := range messages {
		wm := wireMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			args, err := json.Marshal(tc.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			wtc := wireToolCall{ID: tc.ID, Type: "function"}
			wtc.Function.Name = tc.Name
			wtc.Function.Arguments = string(args)
			wm.ToolCalls = append(wm.ToolCalls, wtc)
		}
		wire[i] = wm
	}
	return wire
}

func toWireTools(tools []ToolSpec) []wireTool {
	if len(tools) == 0 {
		return nil
	}
	wire := make([]wireTool, len(tools))
	for i, spec := range tools {
		wt := wireTool{Type: "function"}
		wt.Function.Name = spec.Name
		wt.Function.Description = spec.Description
		wt.Function.Parameters = spec.Parameters
		wire[i] = wt
	}
	return wire
}

func fromWireMessage(wm wireMessage) *Message {
	msg := &Message{
		Role:    wm.Role,
		Content: wm.Content,
	}
	for _, wtc := range wm.ToolCalls {
		args := map[string]any{}
		if wtc.Function.Arguments != "" {
			// Malformed arguments degrade to an empty map; the tool reports
			// the missing fields instead of the whole turn failing.
			_ = json.Unmarshal([]byte(wtc.Function.Arguments), &args)
		}
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:        wtc.ID,
			Name:      wtc.Function.Name,
			Arguments: args,
		})
	}
	return msg
}
