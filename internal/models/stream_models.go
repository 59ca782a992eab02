package models

// ClassifiedItem is the wire shape for one classified text item on the
// classified-items topic. RunID ties the item to its AnalysisRun; SourceURL
// lets the consumer start the run on first sight.
type ClassifiedItem struct {
	RunID     string          `json:"run_id"`
	SourceURL string          `json:"source_url"`
	Item      TextItem        `json:"item"`
	Result    SentimentResult `json:"result"`
}

type RunAction string

const (
	RunActionFinish RunAction = "finish"
	RunActionAbort  RunAction = "abort"
)

// RunSignal closes a streamed run: finish emits artifacts and a summary,
// abort discards everything accumulated so far.
type RunSignal struct {
	RunID     string    `json:"run_id"`
	SourceURL string    `json:"source_url,omitempty"`
	Action    RunAction `json:"action"`
}
