// Package analysis scores uploaded clinical documents for documentation
// compliance, either with a deterministic rule engine or through an LLM.
package analysis

import (
	"fmt"
	"strings"
)

// Report is the result payload of one completed analysis.
type Report struct {
	ComplianceScore  int      `json:"compliance_score"`
	IssuesFound      []string `json:"issues_found"`
	Recommendations  []string `json:"recommendations"`
	RiskLevel        string   `json:"risk_level"`
	Summary          string   `json:"summary"`
	DetailedAnalysis string   `json:"detailed_analysis"`
}

const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// rule flags content that mentions a clinical topic without any of the
// companion terms expected alongside it.
type rule struct {
	topic      string
	companions []string
	deduction  int
	issue      string
}

// Rules are evaluated independently and deductions are cumulative.
var complianceRules = []rule{
	{"medication", []string{"dosage", "dose", "mg", "ml"}, 15,
		"Medication mentioned without dosage details"},
	{"patient", []string{"signature", "signed"}, 10,
		"Patient documentation is missing a signature"},
	{"procedure", []string{"safety", "protocol"}, 12,
		"Procedure notes do not reference a safety protocol"},
	{"fall", []string{"risk", "assessment"}, 20,
		"Fall event recorded without a risk assessment"},
	{"wound", []string{"sterile", "dressing"}, 12,
		"Wound care notes do not document sterile technique"},
	{"vital", []string{"frequency", "recorded"}, 8,
		"Vital signs mentioned without a recording frequency"},
	{"pain", []string{"scale", "score"}, 10,
		"Pain noted without a pain scale rating"},
	{"shift", []string{"handoff", "report"}, 15,
		"Shift documentation is missing handoff details"},
}

var issueRecommendations = []string{
	"Review flagged sections with the responsible staff member",
	"Schedule refresher training on documentation standards",
	"Re-audit the document after corrections are made",
}

var cleanRecommendations = []string{
	"Documentation meets current compliance standards",
	"Continue current documentation practices",
}

// Scan runs the rule engine over extracted document text. It is a pure
// function: identical input always produces an identical report.
func Scan(content, analysisType, filename string) Report {
	lower := strings.ToLower(content)

	score := 100
	var issues []string
	for _, r := range complianceRules {
		if !strings.Contains(lower, r.topic) {
			continue
		}
		if containsAny(lower, r.companions) {
			continue
		}
		issues = append(issues, r.issue)
		score -= r.deduction
	}
	if score < 0 {
		score = 0
	}

	risk := RiskLevel(score)
	recs := cleanRecommendations
	if len(issues) > 0 {
		recs = issueRecommendations
	}

	return Report{
		ComplianceScore:  score,
		IssuesFound:      issues,
		Recommendations:  recs,
		RiskLevel:        risk,
		Summary:          summary(filename, analysisType, score, risk, len(issues)),
		DetailedAnalysis: detail(filename, analysisType, score, risk, issues, recs),
	}
}

// RiskLevel buckets a compliance score.
func RiskLevel(score int) string {
	switch {
	case score >= 95:
		return RiskLow
	case score >= 85:
		return RiskMedium
	case score >= 70:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func summary(filename, analysisType string, score int, risk string, issueCount int) string {
	return fmt.Sprintf("Compliance review of %s (%s): score %d/100, %s risk, %d issue(s) found.",
		filename, analysisType, score, risk, issueCount)
}

func detail(filename, analysisType string, score int, risk string, issues, recs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document: %s\nAnalysis type: %s\nCompliance score: %d/100\nRisk level: %s\n",
		filename, analysisType, score, risk)

	if len(issues) == 0 {
		b.WriteString("\nNo compliance issues were identified.\n")
	} else {
		b.WriteString("\nIssues identified:\n")
		for _, issue := range issues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	}

	b.WriteString("\nRecommendations:\n")
	for _, rec := range recs {
		fmt.Fprintf(&b, "- %s\n", rec)
	}
	return b.String()
}
