package transport

import (
	"time"

	"github.com/google/uuid"
)

type FeatureFlagResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description,omitempty"`
	IsEnabled         bool      `json:"isEnabled"`
	RolloutPercentage int       `json:"rolloutPercentage"`
	TargetRoles       []string  `json:"targetRoles"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type ListFeatureFlagsResponse struct {
	Items []FeatureFlagResponse `json:"items"`
}
