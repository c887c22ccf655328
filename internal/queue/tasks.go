package queue

const TypeAnalysisRun = "analysis:run"

type AnalysisRunPayload struct {
	AnalysisID string `json:"analysis_id"`
	TenantID   string `json:"tenant_id"`
}
