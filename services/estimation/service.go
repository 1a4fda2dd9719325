package estimation

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog/log"

	"github.com/relengfoundry/assembly-gen/api"
	"github.com/relengfoundry/assembly-gen/clients/buildsystem"
)

// Service estimates the basis event anchoring an assembly
//go:generate mockgen -package=estimation -destination ./mock.go -source=service.go
type Service interface {
	Estimate(ctx context.Context, builds []api.ComponentBuild) (api.BasisEvent, error)
}

// NewService returns a new estimation.Service; margin is added to the latest build
// completion time so the build system has had time to tag the build into its target
func NewService(buildsystemClient buildsystem.Client, margin time.Duration) (Service, error) {
	return &service{
		buildsystemClient: buildsystemClient,
		margin:            margin,
	}, nil
}

type service struct {
	buildsystemClient buildsystem.Client
	margin            time.Duration
}

func (s *service) Estimate(ctx context.Context, builds []api.ComponentBuild) (api.BasisEvent, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "EstimateBasisEvent")
	defer span.Finish()

	if len(builds) == 0 {
		return api.BasisEvent{}, fmt.Errorf("cannot estimate a basis event without any resolved builds")
	}

	// maximum over completion times is commutative, so the estimate is independent
	// of the order payloads were fetched in
	var instant time.Time
	for _, build := range builds {
		if candidate := build.CompletionTime.Add(s.margin); candidate.After(instant) {
			instant = candidate
		}
	}

	eventID, err := s.buildsystemClient.EventAtOrBefore(ctx, instant)
	if err != nil {
		return api.BasisEvent{}, fmt.Errorf("failed resolving basis instant %v to an event: %w", instant, err)
	}
	if eventID == 0 {
		return api.BasisEvent{}, fmt.Errorf("no build system event exists at or before %v", instant)
	}

	log.Info().Msgf("Estimated basis event: %v", eventID)

	return api.BasisEvent{ID: eventID, Instant: instant}, nil
}
