package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybeam/studybeam-api/internal/store"
)

func TestAnswerQuestionsInputValidate(t *testing.T) {
	assert.Error(t, AnswerQuestionsInput{}.Validate())
	assert.Error(t, AnswerQuestionsInput{Question: "  "}.Validate())
	assert.NoError(t, AnswerQuestionsInput{Question: "What is DNA?"}.Validate())

	withFile := AnswerQuestionsInput{
		Question:    "Summarize this",
		FileDataURI: "data:text/plain;base64,aGVsbG8=",
		FileName:    "notes.txt",
	}
	assert.NoError(t, withFile.Validate())

	withFile.FileDataURI = "http://example.com/notes.txt"
	assert.Error(t, withFile.Validate())
}

func TestGenerateStudyMaterialsInputValidate(t *testing.T) {
	assert.Error(t, GenerateStudyMaterialsInput{}.Validate())
	assert.Error(t, GenerateStudyMaterialsInput{LectureNotes: "notes", NumberOfQuestions: -1}.Validate())
	assert.NoError(t, GenerateStudyMaterialsInput{LectureNotes: "notes"}.Validate())

	assert.Equal(t, 10, GenerateStudyMaterialsInput{LectureNotes: "notes"}.questionCount())
	assert.Equal(t, 5, GenerateStudyMaterialsInput{LectureNotes: "notes", NumberOfQuestions: 5}.questionCount())
}

func TestGenerateStudyMaterialsOutputValidate(t *testing.T) {
	valid := GenerateStudyMaterialsOutput{
		Flashcards:        []string{"Q - A"},
		Summary:           "A summary.",
		PracticeQuestions: sampleQuestions(2),
	}
	assert.NoError(t, valid.Validate())

	tooFewOptions := GenerateStudyMaterialsOutput{
		PracticeQuestions: []store.QuizQuestion{{
			Question:      "Pick one",
			Options:       []string{"a", "b"},
			CorrectAnswer: "a",
		}},
	}
	assert.Error(t, tooFewOptions.Validate())

	tooManyOptions := GenerateStudyMaterialsOutput{
		PracticeQuestions: []store.QuizQuestion{{
			Question:      "Pick one",
			Options:       []string{"a", "b", "c", "d", "e", "f"},
			CorrectAnswer: "a",
		}},
	}
	assert.Error(t, tooManyOptions.Validate())

	answerNotAnOption := GenerateStudyMaterialsOutput{
		PracticeQuestions: []store.QuizQuestion{{
			Question:      "Pick one",
			Options:       []string{"a", "b", "c"},
			CorrectAnswer: "z",
		}},
	}
	assert.Error(t, answerNotAnOption.Validate())

	emptyQuestionText := GenerateStudyMaterialsOutput{
		PracticeQuestions: []store.QuizQuestion{{
			Options:       []string{"a", "b", "c"},
			CorrectAnswer: "a",
		}},
	}
	assert.Error(t, emptyQuestionText.Validate())
}

func TestDecodeDataURI(t *testing.T) {
	mimeType, data, err := DecodeDataURI("data:text/plain;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mimeType)
	assert.Equal(t, []byte("hello"), data)

	_, _, err = DecodeDataURI("http://example.com/a.png")
	assert.Error(t, err)

	_, _, err = DecodeDataURI("data:text/plain,plain%20text")
	assert.Error(t, err, "only base64 payloads are accepted")

	_, _, err = DecodeDataURI("data:text/plain;base64,!!!not-base64!!!")
	assert.Error(t, err)

	_, _, err = DecodeDataURI("data:missing-comma")
	assert.Error(t, err)
}
