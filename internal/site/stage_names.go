package site

// StageName is a typed identifier for build stages.
type StageName string

const (
	StageLoad    StageName = "load"
	StageIndex   StageName = "index"
	StagePages   StageName = "pages"
	StageTopics  StageName = "topics"
	StageAssets  StageName = "assets"
	StageReports StageName = "reports"
	StageLink    StageName = "link"
)
