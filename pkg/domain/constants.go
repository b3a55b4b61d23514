package domain

// Answer labels recorded in history entries.
const (
	AnswerYes  = "yes"
	AnswerNo   = "no"
	AnswerNext = "Next"
	AnswerEnd  = "End"
)

// DefaultFlowchartName is shown when a document carries no name.
const DefaultFlowchartName = "Decision Process"
