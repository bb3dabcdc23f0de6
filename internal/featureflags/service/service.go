package service

import (
	"context"
	"errors"
	"log/slog"

	"homni_backend/internal/events"
	"homni_backend/internal/featureflags/repository"
	"homni_backend/internal/featureflags/transport"
	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository is the flag store used by Service.
type Repository interface {
	List(ctx context.Context) ([]repository.FeatureFlag, error)
	Toggle(ctx context.Context, id uuid.UUID) (repository.FeatureFlag, error)
}

type Service struct {
	repo Repository
	bus  events.Bus
	log  *logger.Logger
}

func New(repo Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

func (s *Service) List(ctx context.Context) (transport.ListFeatureFlagsResponse, error) {
	flags, err := s.repo.List(ctx)
	if err != nil {
		return transport.ListFeatureFlagsResponse{}, err
	}
	items := make([]transport.FeatureFlagResponse, 0, len(flags))
	for _, f := range flags {
		items = append(items, toResponse(f))
	}
	return transport.ListFeatureFlagsResponse{Items: items}, nil
}

// Toggle flips a flag and publishes feature.flag.toggled with the new state.
func (s *Service) Toggle(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (transport.FeatureFlagResponse, error) {
	flag, err := s.repo.Toggle(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.FeatureFlagResponse{}, apperr.NotFound("feature flag not found")
		}
		return transport.FeatureFlagResponse{}, err
	}

	s.log.WithContext(ctx).Info("feature flag toggled",
		slog.String("flag", flag.Name),
		slog.Bool("enabled", flag.IsEnabled),
	)
	s.bus.Publish(ctx, events.FeatureFlagToggled{
		BaseEvent: events.NewBaseEvent(),
		FlagID:    flag.ID,
		Name:      flag.Name,
		Enabled:   flag.IsEnabled,
		ByUserID:  actorID,
	})
	return toResponse(flag), nil
}

func toResponse(f repository.FeatureFlag) transport.FeatureFlagResponse {
	roles := f.TargetRoles
	if roles == nil {
		roles = []string{}
	}
	return transport.FeatureFlagResponse{
		ID:                f.ID,
		Name:              f.Name,
		Description:       f.Description,
		IsEnabled:         f.IsEnabled,
		RolloutPercentage: f.RolloutPercentage,
		TargetRoles:       roles,
		UpdatedAt:         f.UpdatedAt,
	}
}
