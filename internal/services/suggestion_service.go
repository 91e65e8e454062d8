package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/household-api/internal/constants"
	"github.com/yukikurage/household-api/internal/dto"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"go.uber.org/zap"
)

var ErrEmptySuggestionText = apierrors.NewBadRequest("Text is required.")

// SuggestionService turns free text into chore drafts with an OpenAI chat model.
type SuggestionService struct {
	client *openai.Client
	guard  *MembershipGuard
	logger *zap.Logger
}

// NewSuggestionService creates a SuggestionService. An empty apiKey disables
// suggestions; baseURL overrides the OpenAI endpoint when set.
func NewSuggestionService(apiKey, baseURL string, guard *MembershipGuard, logger *zap.Logger) *SuggestionService {
	s := &SuggestionService{guard: guard, logger: logger}
	if apiKey != "" {
		cfg := openai.DefaultConfig(apiKey)
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		s.client = openai.NewClientWithConfig(cfg)
	}
	return s
}

// SuggestChores extracts chores for the household from text.
func (s *SuggestionService) SuggestChores(ctx context.Context, householdID uint64, text string, userID uint64) ([]dto.ChoreSuggestionDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if s.client == nil {
		return nil, ErrSuggestionsUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptySuggestionText
	}

	prompt := fmt.Sprintf(`You are a household chore assistant. Extract concrete chores from the text below.

Current time: %s

Text:
%s

Return a JSON array of chores in this shape:
[
  {
    "title": "short chore title",
    "description": "details of the chore",
    "priority": 0
  }
]

Rules:
- Return [] when the text contains no chores
- priority is an integer from 0 (low) to 3 (urgent)
- Return JSON only, without any explanation`, time.Now().Format(time.RFC3339), text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var suggestions []dto.ChoreSuggestionDTO
	if err := json.Unmarshal([]byte(content), &suggestions); err != nil {
		s.logger.Warn("unparseable chore suggestions", zap.String("response", content))
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	out := make([]dto.ChoreSuggestionDTO, 0, min(len(suggestions), constants.MaxAIGeneratedChores))
	for _, sg := range suggestions {
		if len(out) == constants.MaxAIGeneratedChores {
			break
		}
		sg.Title = strings.TrimSpace(sg.Title)
		if sg.Title == "" {
			continue
		}
		out = append(out, sg)
	}
	return out, nil
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
