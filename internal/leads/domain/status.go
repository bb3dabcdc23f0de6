// Package domain holds the lead status vocabulary and its pipeline projection.
package domain

import "strings"

// LeadStatus is one of the seven canonical lead statuses.
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusNegotiating LeadStatus = "negotiating"
	LeadStatusConverted   LeadStatus = "converted"
	LeadStatusLost        LeadStatus = "lost"
	LeadStatusPaused      LeadStatus = "paused"
)

// PipelineStage is the coarse grouping shown on boards.
type PipelineStage string

const (
	PipelineStageNew        PipelineStage = "new"
	PipelineStageInProgress PipelineStage = "in_progress"
	PipelineStageWon        PipelineStage = "won"
	PipelineStageLost       PipelineStage = "lost"
)

var allStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusQualified,
	LeadStatusContacted,
	LeadStatusNegotiating,
	LeadStatusConverted,
	LeadStatusLost,
	LeadStatusPaused,
}

var allStages = []PipelineStage{
	PipelineStageNew,
	PipelineStageInProgress,
	PipelineStageWon,
	PipelineStageLost,
}

// The SQL generated column leads.pipeline_stage mirrors this table.
var statusStages = map[LeadStatus]PipelineStage{
	LeadStatusNew:         PipelineStageNew,
	LeadStatusQualified:   PipelineStageNew,
	LeadStatusContacted:   PipelineStageInProgress,
	LeadStatusNegotiating: PipelineStageInProgress,
	LeadStatusConverted:   PipelineStageWon,
	LeadStatusLost:        PipelineStageLost,
	LeadStatusPaused:      PipelineStageLost,
}

var stageDefaultStatus = map[PipelineStage]LeadStatus{
	PipelineStageNew:        LeadStatusNew,
	PipelineStageInProgress: LeadStatusContacted,
	PipelineStageWon:        LeadStatusConverted,
	PipelineStageLost:       LeadStatusLost,
}

// Legacy and free-text spellings still sent by older clients and imports.
var statusAliases = map[string]LeadStatus{
	"active":      LeadStatusNew,
	"open":        LeadStatusNew,
	"in_progress": LeadStatusContacted,
	"working":     LeadStatusContacted,
	"closed_won":  LeadStatusConverted,
	"won":         LeadStatusConverted,
	"closed_lost": LeadStatusLost,
	"on_hold":     LeadStatusPaused,
}

// AllStatuses returns the canonical statuses in lifecycle order.
func AllStatuses() []LeadStatus {
	out := make([]LeadStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// AllPipelineStages returns the pipeline stages in board order.
func AllPipelineStages() []PipelineStage {
	out := make([]PipelineStage, len(allStages))
	copy(out, allStages)
	return out
}

// IsValidLeadStatus reports whether raw is exactly a canonical status.
func IsValidLeadStatus(raw string) bool {
	_, ok := statusStages[LeadStatus(raw)]
	return ok
}

// NormalizeLeadStatus maps any input to a canonical status. Aliases are
// resolved, canonical values pass through and everything else becomes new.
func NormalizeLeadStatus(raw string) LeadStatus {
	token := strings.ToLower(strings.TrimSpace(raw))
	if status, ok := statusAliases[token]; ok {
		return status
	}
	if IsValidLeadStatus(token) {
		return LeadStatus(token)
	}
	return LeadStatusNew
}

// StatusToPipelineStage projects a status onto its stage. Unknown values land in new.
func StatusToPipelineStage(status LeadStatus) PipelineStage {
	if stage, ok := statusStages[status]; ok {
		return stage
	}
	return PipelineStageNew
}

// PipelineStageToStatus returns the status a lead gets when moved into stage
// on a board. Unknown stages map to new.
func PipelineStageToStatus(stage PipelineStage) LeadStatus {
	if status, ok := stageDefaultStatus[stage]; ok {
		return status
	}
	return LeadStatusNew
}

// PipelineStage returns the stage for s.
func (s LeadStatus) PipelineStage() PipelineStage {
	return StatusToPipelineStage(s)
}

func (s LeadStatus) String() string { return string(s) }

func (p PipelineStage) String() string { return string(p) }
