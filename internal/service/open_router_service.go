package service

import (
	"context"
	"fmt"
	"log"

	"github.com/Aryan-111/Orca-Edge/internal/config"
	"github.com/Aryan-111/Orca-Edge/internal/model"
	"github.com/Aryan-111/Orca-Edge/internal/util"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// OpenRouterService is the text-only CV analysis provider. It cannot attach
// document bytes, so PDF uploads go through the go-fitz text extractor first.
// Selected with CV_PROVIDER=openrouter; Gemini stays the default.
type OpenRouterService struct {
	APIKey string
	Model  string
}

func NewOpenRouterService() *OpenRouterService {
	return &OpenRouterService{
		APIKey: config.LoadOpenRouterConfig().APIKey,
		Model:  "openai/gpt-4o-mini",
	}
}

// AnalyzeCV implements CvAnalyzer over the chat-completions endpoint. Like
// the Gemini provider, a malformed or length-mismatched payload yields the
// fixed fallback analysis, never an error.
func (s *OpenRouterService) AnalyzeCV(ctx context.Context, document []byte, mimeType, targetRole string, technicalCount, behavioralCount int) (model.CvAnalysis, error) {
	if s.APIKey == "" {
		return model.CvAnalysis{}, fmt.Errorf("OPENROUTER_API_KEY not set")
	}

	cvText, err := s.documentText(document, mimeType)
	if err != nil {
		// The interview still has to start; analyze against the fallback.
		log.Printf("cv text extraction failed: %v, using fallback analysis", err)
		return model.FallbackCvAnalysis(), nil
	}

	prompt := fmt.Sprintf("%s\n\nCV:\n%s", buildCvAnalysisPrompt(targetRole, technicalCount, behavioralCount), cvText)

	client := resty.New()
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+s.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"model": s.Model,
			"messages": []map[string]string{
				{"role": "system", "content": "You are an expert HR analyst extracting structured data from CVs."},
				{"role": "user", "content": prompt},
			},
		}).
		Post("https://openrouter.ai/api/v1/chat/completions")
	if err != nil {
		return model.CvAnalysis{}, err
	}

	text := gjson.Get(resp.String(), "choices.0.message.content").String()
	if text == "" {
		return model.CvAnalysis{}, fmt.Errorf("no response from LLM")
	}

	return parseCvAnalysis(text, technicalCount, behavioralCount), nil
}

func (s *OpenRouterService) documentText(document []byte, mimeType string) (string, error) {
	switch mimeType {
	case "application/pdf":
		return util.ExtractPDFText(document)
	case "text/plain":
		return string(document), nil
	default:
		return "", fmt.Errorf("unsupported document type %q for text-only provider", mimeType)
	}
}
