package core

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/studybeam/studybeam-api/internal/store"
)

// The two prompt flows mirror the product's study-assistant contract: a
// structured input is validated, rendered into a prompt, sent to the
// completion service, and the structured output is validated before it is
// returned. There are no retries; a bad response is the caller's error.

const defaultPracticeQuestionCount = 10

type AnswerQuestionsInput struct {
	// Question is required.
	Question string `json:"question"`
	// FileDataURI optionally carries an attached document or image as a
	// data URI ("data:<mimetype>;base64,<data>"). When present it takes
	// precedence over Context.
	FileDataURI string `json:"fileDataUri,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	// Context optionally grounds the answer in pasted study material.
	Context string `json:"context,omitempty"`
}

func (in AnswerQuestionsInput) Validate() error {
	if strings.TrimSpace(in.Question) == "" {
		return fmt.Errorf("question is required")
	}
	if in.FileDataURI != "" {
		if _, _, err := DecodeDataURI(in.FileDataURI); err != nil {
			return fmt.Errorf("invalid fileDataUri: %w", err)
		}
	}
	return nil
}

type AnswerQuestionsOutput struct {
	// Answer is Markdown-formatted.
	Answer string `json:"answer"`
}

type GenerateStudyMaterialsInput struct {
	LectureNotes string `json:"lectureNotes"`
	// NumberOfQuestions defaults to 10 when zero.
	NumberOfQuestions int `json:"numberOfQuestions,omitempty"`
}

func (in GenerateStudyMaterialsInput) Validate() error {
	if strings.TrimSpace(in.LectureNotes) == "" {
		return fmt.Errorf("lectureNotes is required")
	}
	if in.NumberOfQuestions < 0 {
		return fmt.Errorf("numberOfQuestions must not be negative")
	}
	return nil
}

func (in GenerateStudyMaterialsInput) questionCount() int {
	if in.NumberOfQuestions > 0 {
		return in.NumberOfQuestions
	}
	return defaultPracticeQuestionCount
}

type GenerateStudyMaterialsOutput struct {
	// Flashcards are free-form "Question - Answer" strings; callers re-parse
	// them with ParseFlashcard.
	Flashcards        []string             `json:"flashcards"`
	Summary           string               `json:"summary"`
	PracticeQuestions []store.QuizQuestion `json:"practiceQuestions"`
}

// Validate enforces the output schema: 3-5 options per question and a
// correct answer that is one of them.
func (out GenerateStudyMaterialsOutput) Validate() error {
	for i, q := range out.PracticeQuestions {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("practice question %d has no question text", i)
		}
		if len(q.Options) < 3 || len(q.Options) > 5 {
			return fmt.Errorf("practice question %d has %d options, want 3-5", i, len(q.Options))
		}
		found := false
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("practice question %d: correctAnswer is not one of the options", i)
		}
	}
	return nil
}

// DecodeDataURI splits a "data:<mimetype>;base64,<data>" URI into its MIME
// type and decoded bytes.
func DecodeDataURI(uri string) (mimeType string, data []byte, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	mimeType = strings.TrimSuffix(header, ";base64")
	if mimeType == header {
		return "", nil, fmt.Errorf("only base64 data URIs are supported")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI payload: %w", err)
	}
	return mimeType, data, nil
}

// Prompt templates, branch precedence: attached file > pasted context >
// general assistant.

func answerWithFilePrompt(fileName, question string) string {
	return fmt.Sprintf(`You are an AI assistant. Analyze the attached document/image named '%s' and answer the question.
Format your response using Markdown. Use headings, bullet points, tables, and code blocks (specifying the language if known) where appropriate.

Question: %s`, fileName, question)
}

func answerWithContextPrompt(context, question string) string {
	return fmt.Sprintf(`You are an expert in the subject matter contained in the following study material.

Context: %s

Answer the following question based on the study material above.
Format your response using Markdown. Use headings, bullet points, tables, and code blocks (specifying the language if known) where appropriate. Be clear and concise.

Question: %s`, context, question)
}

func answerGeneralPrompt(question string) string {
	return fmt.Sprintf(`You are a helpful AI assistant named StudyBeam. Answer the following question.
Format your response using Markdown. Use headings, bullet points, tables, and code blocks (specifying the language if known) where appropriate.
If the question is related to studying, learning, or education, provide a more detailed and helpful answer.

Question: %s`, question)
}

func studyMaterialsPrompt(lectureNotes string, numberOfQuestions int) string {
	return fmt.Sprintf(`You are an expert study material generator.

Based on the lecture notes provided, generate:
1. Flashcards: Create a list of flashcards. Each flashcard should be a string, ideally in a "Question - Answer" or "Term :: Definition" format.
2. Summary: Provide a concise summary of the key points from the lecture notes.
3. Practice Questions: Generate exactly %d multiple-choice practice questions.
   For each question, provide the question text, a list of 3-5 options, the correct answer (which must be one of the options), and an optional brief explanation for why the answer is correct.

Respond with a single JSON object of the form:
{"flashcards": ["..."], "summary": "...", "practiceQuestions": [{"question": "...", "options": ["...", "...", "..."], "correctAnswer": "...", "explanation": "..."}]}

Lecture Notes:
%s`, numberOfQuestions, lectureNotes)
}
