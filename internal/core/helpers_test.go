package core

import (
	"fmt"

	"github.com/studybeam/studybeam-api/internal/store"
)

func sampleCards(n int) []store.Card {
	cards := make([]store.Card, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, store.Card{
			ID:       int64(i + 1),
			Question: fmt.Sprintf("question %d", i+1),
			Answer:   fmt.Sprintf("answer %d", i+1),
		})
	}
	return cards
}

func sampleQuestions(n int) []store.QuizQuestion {
	questions := make([]store.QuizQuestion, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, store.QuizQuestion{
			ID:            int64(i + 1),
			Question:      fmt.Sprintf("question %d", i+1),
			Options:       []string{"alpha", "beta", "gamma"},
			CorrectAnswer: "alpha",
			Explanation:   "alpha is correct",
		})
	}
	return questions
}
