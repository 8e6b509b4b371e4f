// Package file loads quiz content from an on-disk YAML catalog.
package file

import (
	"context"
	"fmt"
	"os"

	"udp-trivia-service/internal/domain"

	"gopkg.in/yaml.v3"
)

type quizFile struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// QuizLoader reads a YAML file holding one or more quizzes.
type QuizLoader struct {
	path string
}

func NewQuizLoader(path string) *QuizLoader {
	return &QuizLoader{path: path}
}

func (l *QuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("read quiz file: %w", err)
	}
	var parsed quizFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return domain.Quiz{}, fmt.Errorf("parse quiz file %s: %w", l.path, err)
	}
	for _, quiz := range parsed.Quizzes {
		if quiz.ID == quizID {
			if err := quiz.Validate(); err != nil {
				return domain.Quiz{}, err
			}
			return quiz, nil
		}
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}
