package model

// Stage is the coarse lifecycle phase of one interview session. Exactly one
// stage is active per session and it decides which operations are legal.
type Stage string

const (
	StageSetup     Stage = "setup"
	StageAnalyzing Stage = "analyzing"
	StageInterview Stage = "interview"
	StageFeedback  Stage = "feedback"
	StageComplete  Stage = "complete"
	StageError     Stage = "error"
)

// Senders for transcript entries.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// ChatTurn is one entry of the visible transcript. The transcript is
// append-only; entries are never edited or reordered.
type ChatTurn struct {
	Sender     string           `json:"sender"`
	Text       string           `json:"text"`
	IsReport   bool             `json:"is_report,omitempty"`
	ReportData *InterviewReport `json:"report_data,omitempty"`
}
