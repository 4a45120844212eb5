package events

var HarvestProgressTopic = "HarvestProgressEvent"

// HarvestProgress is advisory telemetry emitted on every orchestrator state
// transition.
type HarvestProgress struct {
	RunID      string
	UserID     int64
	State      string
	Percentage int
	Message    string
}

var HarvestCompletedTopic = "HarvestCompletedEvent"

// HarvestCompleted is the terminal event of a harvest run.
type HarvestCompleted struct {
	RunID    string
	UserID   int64
	Success  bool
	Found    int
	Admitted int
	Matched  int
}
