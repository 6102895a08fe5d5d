package domain

// FailedBatch records a batch that contributed no rows to a run.
type FailedBatch struct {
	Index    int          `json:"index"`
	IDs      []string     `json:"ids"`
	Class    ErrorClass   `json:"class"`
	Stage    FailureStage `json:"stage"`
	Error    string       `json:"error_msg"`
	Attempts int          `json:"attempts"`
}

// FailureStage says where in the batch lifecycle the failure happened.
type FailureStage string

const (
	FailureStageBuild     FailureStage = "build"
	FailureStageTransport FailureStage = "transport"
	FailureStageNormalize FailureStage = "normalize"
)
