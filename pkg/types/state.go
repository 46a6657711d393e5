package types

// Stage constants for the per-payload pipeline state machine. One execution
// per inbound payload, strictly linear, with StageFailed reachable from any
// step.
const (
	StageReceived        = "received"
	StageTranscriptBuilt = "transcript_built"
	StageFactsExtracted  = "facts_extracted"
	StageFactsFiltered   = "facts_filtered"
	StageRecordsWritten  = "records_written"
	StageDone            = "done"
	StageFailed          = "failed"
)

// PipelineStages contains all pipeline stages in execution order, the two
// terminal stages last.
var PipelineStages = []string{
	StageReceived,
	StageTranscriptBuilt,
	StageFactsExtracted,
	StageFactsFiltered,
	StageRecordsWritten,
	StageDone,
	StageFailed,
}

// IsTerminalStage reports whether the stage ends a pipeline run.
func IsTerminalStage(stage string) bool {
	return stage == StageDone || stage == StageFailed
}
