package scheduler

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskDistributeLead retries distribution for a lead left unassigned at intake.
const TaskDistributeLead = "leads.distribute"

// maxDistributionRetries bounds how often a failing RPC is retried before the
// lead is left to the backlog sweeper.
const maxDistributionRetries = 5

type DistributeLeadPayload struct {
	LeadID string `json:"leadId"`
}

// distributionTaskID gives every lead at most one pending retry.
func distributionTaskID(leadID uuid.UUID) string {
	return "lead-distribution:" + leadID.String()
}

func NewDistributeLeadTask(payload DistributeLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDistributeLead, data), nil
}

func ParseDistributeLeadPayload(task *asynq.Task) (DistributeLeadPayload, error) {
	var payload DistributeLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DistributeLeadPayload{}, err
	}
	return payload, nil
}
