package config

import (
	"os"
	"strconv"
	"sync"
)

type InterviewConfig struct {
	Model            string
	CvProvider       string // "gemini" (default) or "openrouter"
	DefaultQuestions int
	AllowedQuestions []int
}

var (
	interviewConfig *InterviewConfig
	interviewOnce   sync.Once
)

func LoadInterviewConfig() *InterviewConfig {
	interviewOnce.Do(func() {
		model := os.Getenv("INTERVIEW_MODEL")
		if model == "" {
			model = "gemini-2.5-flash"
		}
		provider := os.Getenv("CV_PROVIDER")
		if provider == "" {
			provider = "gemini"
		}
		defaultQuestions := 15
		if v := os.Getenv("INTERVIEW_DEFAULT_QUESTIONS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				defaultQuestions = n
			}
		}
		interviewConfig = &InterviewConfig{
			Model:            model,
			CvProvider:       provider,
			DefaultQuestions: defaultQuestions,
			AllowedQuestions: []int{5, 10, 15},
		}
	})
	return interviewConfig
}

// AllowsQuestionCount reports whether n is one of the selectable interview lengths.
func (c *InterviewConfig) AllowsQuestionCount(n int) bool {
	for _, allowed := range c.AllowedQuestions {
		if n == allowed {
			return true
		}
	}
	return false
}
