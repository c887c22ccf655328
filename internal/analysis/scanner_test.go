package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanCleanDocument(t *testing.T) {
	content := "Routine daily summary. All checks completed without incident."

	report := Scan(content, "general", "daily-summary.txt")

	assert.Equal(t, 100, report.ComplianceScore)
	assert.Empty(t, report.IssuesFound)
	assert.Equal(t, RiskLow, report.RiskLevel)
	assert.Len(t, report.Recommendations, 2)
	assert.Contains(t, report.Summary, "daily-summary.txt")
	assert.Contains(t, report.Summary, "score 100/100")
}

func TestScanMedicationRuleDeductsFifteen(t *testing.T) {
	content := "Medication administered in the morning as scheduled."

	report := Scan(content, "general", "med-note.txt")

	assert.Equal(t, 85, report.ComplianceScore)
	require.Len(t, report.IssuesFound, 1)
	assert.Equal(t, "Medication mentioned without dosage details", report.IssuesFound[0])
	assert.Equal(t, RiskMedium, report.RiskLevel)
	assert.Len(t, report.Recommendations, 3)
}

func TestScanMedicationRuleSatisfiedByCompanion(t *testing.T) {
	for _, companion := range []string{"dosage", "dose", "mg", "ml"} {
		t.Run(companion, func(t *testing.T) {
			content := "Medication administered, " + companion + " noted in chart."
			report := Scan(content, "general", "med-note.txt")

			assert.Equal(t, 100, report.ComplianceScore)
			assert.Empty(t, report.IssuesFound)
		})
	}
}

func TestScanRulesAreIndependentAndCumulative(t *testing.T) {
	// Medication (no dosage) and fall (no risk assessment) both fire.
	content := "Medication administered. Resident had a fall near the bed."

	report := Scan(content, "incident", "incident.txt")

	assert.Equal(t, 100-15-20, report.ComplianceScore)
	require.Len(t, report.IssuesFound, 2)
	assert.Equal(t, RiskCritical, report.RiskLevel)
}

func TestScanScoreFloorsAtZero(t *testing.T) {
	// Every topic keyword with no companion terms; total deductions
	// exceed 100.
	content := "medication patient procedure fall wound vital pain shift"

	report := Scan(content, "general", "everything.txt")

	assert.Equal(t, 0, report.ComplianceScore)
	assert.Len(t, report.IssuesFound, len(complianceRules))
	assert.Equal(t, RiskCritical, report.RiskLevel)
}

func TestScanIsDeterministic(t *testing.T) {
	content := "Patient seen during shift. Wound checked, pain discussed."

	first := Scan(content, "general", "note.txt")
	second := Scan(content, "general", "note.txt")

	assert.Equal(t, first, second)
}

func TestScanScoreAlwaysInRange(t *testing.T) {
	contents := []string{
		"",
		"nothing clinical here",
		"medication patient procedure fall wound vital pain shift",
		strings.Repeat("medication fall wound ", 50),
	}
	for _, content := range contents {
		report := Scan(content, "general", "doc.txt")
		assert.GreaterOrEqual(t, report.ComplianceScore, 0)
		assert.LessOrEqual(t, report.ComplianceScore, 100)
	}
}

func TestScanMatchingIsCaseInsensitive(t *testing.T) {
	report := Scan("MEDICATION GIVEN. DOSAGE 5 UNITS.", "general", "caps.txt")
	assert.Equal(t, 100, report.ComplianceScore)

	report = Scan("MEDICATION GIVEN.", "general", "caps.txt")
	assert.Equal(t, 85, report.ComplianceScore)
}

func TestRiskLevelBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, RiskLow},
		{95, RiskLow},
		{94, RiskMedium},
		{85, RiskMedium},
		{84, RiskHigh},
		{70, RiskHigh},
		{69, RiskCritical},
		{0, RiskCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevel(tt.score), "score %d", tt.score)
	}
}

func TestScanDetailListsIssuesAndRecommendations(t *testing.T) {
	report := Scan("Medication administered.", "general", "med-note.txt")

	assert.Contains(t, report.DetailedAnalysis, "med-note.txt")
	for _, issue := range report.IssuesFound {
		assert.Contains(t, report.DetailedAnalysis, issue)
	}
	for _, rec := range report.Recommendations {
		assert.Contains(t, report.DetailedAnalysis, rec)
	}
}
