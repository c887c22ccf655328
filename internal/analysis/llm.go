package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nurseport/staffing-backend/internal/llm"
)

const auditorSystemPrompt = `You are a healthcare documentation compliance auditor for a nurse staffing agency. ` +
	`Review the document text and respond with a single JSON object containing exactly these fields: ` +
	`compliance_score (integer 0-100), issues_found (array of strings), recommendations (array of strings), ` +
	`risk_level (one of low, medium, high, critical), summary (string), detailed_analysis (string). ` +
	`Respond with JSON only, no prose before or after.`

func buildAuditMessages(filename, analysisType, content string) []llm.Message {
	return []llm.Message{
		{Role: "system", Content: auditorSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(
			"Document: %s\nAnalysis type: %s\n\nDocument text:\n%s", filename, analysisType, content)},
	}
}

// parseAuditResponse reads the model output leniently: anything around the
// outermost JSON object is ignored, out-of-range scores are clamped, and a
// missing or unknown risk level is rederived from the score.
func parseAuditResponse(raw string) (Report, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Report{}, fmt.Errorf("no JSON object in model response")
	}

	var report Report
	if err := json.Unmarshal([]byte(raw[start:end+1]), &report); err != nil {
		return Report{}, fmt.Errorf("decode model response: %w", err)
	}

	if report.ComplianceScore < 0 {
		report.ComplianceScore = 0
	}
	if report.ComplianceScore > 100 {
		report.ComplianceScore = 100
	}

	switch report.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
	default:
		report.RiskLevel = RiskLevel(report.ComplianceScore)
	}

	return report, nil
}

func (s *Service) runLLM(ctx context.Context, model, filename, analysisType, content string) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Model:       model,
		Messages:    buildAuditMessages(filename, analysisType, content),
		Temperature: 0.2,
	})
	if err != nil {
		return Report{}, fmt.Errorf("llm analysis: %w", err)
	}

	report, err := parseAuditResponse(resp.Content)
	if err != nil {
		return Report{}, fmt.Errorf("llm analysis: %w", err)
	}
	return report, nil
}
