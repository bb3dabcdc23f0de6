package domain

var statusLabels = map[LeadStatus]string{
	LeadStatusNew:         "Ny",
	LeadStatusQualified:   "Kvalifisert",
	LeadStatusContacted:   "Kontaktet",
	LeadStatusNegotiating: "Forhandling",
	LeadStatusConverted:   "Konvertert",
	LeadStatusLost:        "Tapt",
	LeadStatusPaused:      "Pauset",
}

var stageLabels = map[PipelineStage]string{
	PipelineStageNew:        "Nye",
	PipelineStageInProgress: "I gang",
	PipelineStageWon:        "Vunnet",
	PipelineStageLost:       "Tapt",
}

// StatusLabel returns the Norwegian display label, or the raw value when unknown.
func StatusLabel(status LeadStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

// PipelineStageLabel returns the Norwegian display label, or the raw value when unknown.
func PipelineStageLabel(stage PipelineStage) string {
	if label, ok := stageLabels[stage]; ok {
		return label
	}
	return string(stage)
}
