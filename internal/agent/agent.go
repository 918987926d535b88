// Package agent runs the tool-routing reasoning loop that answers a user turn.
package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/config"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/llm"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/models"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/tools"
)

// exhaustedMessage is the answer when the loop hits its round cap without the
// model producing a final response.
const exhaustedMessage = "I couldn't reach a final answer within the allowed number of reasoning steps. Please try rephrasing your question."

// Agent alternates between asking the model for the next step and executing
// the tool calls it requests, until the model answers in plain text.
type Agent struct {
	model        llm.ChatModel
	registry     *tools.Registry
	systemPrompt string
	maxRounds    int
	toolTimeout  time.Duration
	logger       *zap.Logger
}

// New creates an agent. maxRounds bounds model invocations per turn so a
// model that keeps requesting tools cannot loop forever.
func New(model llm.ChatModel, registry *tools.Registry, systemPrompt string, cfg *config.AgentConfig, logger *zap.Logger) *Agent {
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 8
	}
	toolTimeout := time.Duration(cfg.ToolTimeoutSeconds) * time.Second
	if toolTimeout <= 0 {
		toolTimeout = 30 * time.Second
	}
	return &Agent{
		model:        model,
		registry:     registry,
		systemPrompt: systemPrompt,
		maxRounds:    maxRounds,
		toolTimeout:  toolTimeout,
		logger:       logger,
	}
}

// Run answers userMessage given prior conversation turns and returns the
// assistant's reply. The reply is always non-empty text: model failures and
// round exhaustion degrade to fixed messages instead of errors, so a turn
// never leaves the caller without something to show the user.
func (a *Agent) Run(ctx context.Context, userMessage string, history []models.ConversationTurn) string {
	messages := a.seedMessages(userMessage, history)
	specs := a.registry.Specs()

	for round := 0; round < a.maxRounds; round++ {
		reply, err := a.model.Chat(ctx, messages, specs)
		if err != nil {
			a.logger.Error("model invocation failed", zap.Int("round", round), zap.Error(err))
			return fmt.Sprintf("I'm having trouble right now. Error: %v", err)
		}

		if len(reply.ToolCalls) == 0 {
			if reply.Content == "" {
				return exhaustedMessage
			}
			return reply.Content
		}

		messages = append(messages, *reply)
		for _, call := range reply.ToolCalls {
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    a.executeTool(ctx, call),
				ToolCallID: call.ID,
			})
		}
	}

	a.logger.Warn("reasoning round limit reached", zap.Int("max_rounds", a.maxRounds))
	return exhaustedMessage
}

// executeTool runs a single tool call under the tool timeout. Unknown tools
// and panics degrade to error text the model can react to.
func (a *Agent) executeTool(ctx context.Context, call llm.ToolCall) (result string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("tool panicked", zap.String("tool", call.Name), zap.Any("panic", r))
			result = fmt.Sprintf("Error executing %s: %v", call.Name, r)
		}
	}()

	tool, ok := a.registry.Get(call.Name)
	if !ok {
		a.logger.Warn("model requested unknown tool", zap.String("tool", call.Name))
		return fmt.Sprintf("Error executing %s: tool not found", call.Name)
	}

	toolCtx, cancel := context.WithTimeout(ctx, a.toolTimeout)
	defer cancel()

	a.logger.Debug("executing tool", zap.String("tool", call.Name))
	return tool.Call(toolCtx, call.Arguments)
}

// seedMessages builds the conversation sent to the model: system prompt,
// prior turns as alternating user/assistant pairs, then the current message.
func (a *Agent) seedMessages(userMessage string, history []models.ConversationTurn) []llm.Message {
	messages := make([]llm.Message, 0, len(history)*2+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt})
	for _, turn := range history {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: turn.UserMessage},
			llm.Message{Role: llm.RoleAssistant, Content: turn.AssistantMessage},
		)
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
}
