package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/studybeam/studybeam-api/internal/config"
)

const defaultModelName = "gemini-1.5-flash-latest"

// FlowRunner is the seam between services and the hosted completion
// service, so tests can substitute a fake.
type FlowRunner interface {
	AnswerQuestions(ctx context.Context, input AnswerQuestionsInput) (AnswerQuestionsOutput, error)
	GenerateStudyMaterials(ctx context.Context, input GenerateStudyMaterialsInput) (GenerateStudyMaterialsOutput, error)
}

type LLMService struct {
	client *genai.Client
}

func NewLLMService() *LLMService {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	return &LLMService{
		client: client,
	}
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		} else {
			log.Println("GenAI client closed.")
		}
	}
}

// AnswerQuestions runs the open-ended answer flow. Precedence: an attached
// file grounds the answer (context is ignored), otherwise pasted context
// grounds it, otherwise the model answers as a general assistant.
func (s *LLMService) AnswerQuestions(ctx context.Context, input AnswerQuestionsInput) (AnswerQuestionsOutput, error) {
	if err := input.Validate(); err != nil {
		return AnswerQuestionsOutput{}, fmt.Errorf("invalid answer-questions input: %w", err)
	}

	model := s.client.GenerativeModel(defaultModelName)

	var parts []genai.Part
	switch {
	case input.FileDataURI != "":
		mimeType, data, err := DecodeDataURI(input.FileDataURI)
		if err != nil {
			return AnswerQuestionsOutput{}, fmt.Errorf("failed to decode attached file: %w", err)
		}
		parts = append(parts,
			genai.Text(answerWithFilePrompt(input.FileName, input.Question)),
			genai.Blob{MIMEType: mimeType, Data: data},
		)
	case input.Context != "":
		parts = append(parts, genai.Text(answerWithContextPrompt(input.Context, input.Question)))
	default:
		parts = append(parts, genai.Text(answerGeneralPrompt(input.Question)))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return AnswerQuestionsOutput{}, fmt.Errorf("gemini answer request failed: %w", err)
	}

	answer := responseText(resp)
	if answer == "" {
		return AnswerQuestionsOutput{}, fmt.Errorf("gemini returned an empty answer")
	}
	return AnswerQuestionsOutput{Answer: answer}, nil
}

// GenerateStudyMaterials runs the notes-to-materials flow. The model is
// asked for JSON and the reply is validated against the output schema.
func (s *LLMService) GenerateStudyMaterials(ctx context.Context, input GenerateStudyMaterialsInput) (GenerateStudyMaterialsOutput, error) {
	if err := input.Validate(); err != nil {
		return GenerateStudyMaterialsOutput{}, fmt.Errorf("invalid generate-study-materials input: %w", err)
	}

	model := s.client.GenerativeModel(defaultModelName)
	model.GenerationConfig.ResponseMIMEType = "application/json"

	prompt := studyMaterialsPrompt(input.LectureNotes, input.questionCount())
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return GenerateStudyMaterialsOutput{}, fmt.Errorf("gemini study-materials request failed: %w", err)
	}

	raw := responseText(resp)
	if raw == "" {
		return GenerateStudyMaterialsOutput{}, fmt.Errorf("gemini returned an empty study-materials response")
	}

	var output GenerateStudyMaterialsOutput
	if err := json.Unmarshal([]byte(raw), &output); err != nil {
		return GenerateStudyMaterialsOutput{}, fmt.Errorf("failed to parse study-materials response: %w", err)
	}
	if err := output.Validate(); err != nil {
		return GenerateStudyMaterialsOutput{}, fmt.Errorf("study-materials response failed validation: %w", err)
	}
	return output, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}
	return sb.String()
}
