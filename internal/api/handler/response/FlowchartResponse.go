package response

import (
	"time"

	"blueprint/internal/graph"
)

type FlowchartSummaryDTO struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Visibility  string    `json:"visibility"`
	Version     int       `json:"version"`
	CreatorID   uint      `json:"creatorId"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type FlowchartResponseDTO struct {
	FlowchartSummaryDTO
	Data graph.Document `json:"data"`
}

// MutationResponseDTO reports a committed batch: the new document state, the
// fully expanded list of operations that were applied (cascades included) and
// the validation findings that remained as warnings.
type MutationResponseDTO struct {
	Flowchart FlowchartResponseDTO `json:"flowchart"`
	Applied   []graph.Op           `json:"applied"`
	Report    graph.Report         `json:"report"`
}

type ValidationResponseDTO struct {
	Version int          `json:"version"`
	Report  graph.Report `json:"report"`
}

// ChatResponseDTO is the planner's answer. Flowchart always carries the
// document the caller should display: the new version after a committed
// plan, the unchanged one when the plan was empty or rejected. Error is set
// when the proposed plan could not be applied.
type ChatResponseDTO struct {
	Explanation string               `json:"explanation"`
	Applied     []graph.Op           `json:"applied"`
	Report      graph.Report         `json:"report"`
	Flowchart   FlowchartResponseDTO `json:"flowchart"`
	Error       string               `json:"error,omitempty"`
}
