package models

// RunRecord is one row per invocation of the pipeline driver, recording
// which stages ran and how the run concluded.
type RunRecord struct {
	BaseModel

	PipelineTitle  string     `gorm:"index;not null" json:"pipeline_title"`
	StagesExecuted string     `gorm:"type:text" json:"stages_executed"`
	StartedAt      Time       `json:"started_at"`
	CompletedAt    *Time      `json:"completed_at"`
	Status         RunStatus  `gorm:"type:varchar(16);index" json:"status"`
	LastError      string     `gorm:"type:text" json:"last_error"`
}

// RunStatus enumerates the terminal and in-flight states of a RunRecord.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// TableName pins the table name so migrations stay stable regardless of
// GORM's pluralization rules.
func (RunRecord) TableName() string {
	return "run_records"
}
