package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"reelcraft/internal/domain"
)

// Switchboard maps a pipeline stage to the concrete model currently
// handling it. Registration is static at process start; selection re-reads
// configuration on every call so operators can swap models live.
type Switchboard struct {
	configs  domain.ModelConfigRepository
	invokers map[string]Invoker
	logger   zerolog.Logger
}

// NewSwitchboard builds a Switchboard with the given invokers registered
// by model name.
func NewSwitchboard(configs domain.ModelConfigRepository, logger zerolog.Logger, invokers ...Invoker) *Switchboard {
	registry := make(map[string]Invoker, len(invokers))
	for _, inv := range invokers {
		registry[inv.ModelName()] = inv
		logger.Info().Str("model", inv.ModelName()).Msg("switchboard: registered invoker")
	}
	return &Switchboard{configs: configs, invokers: registry, logger: logger}
}

// Resolve returns the invoker and configuration for the stage's active
// model. It fails with domain.ErrStageNotConfigured when no active row
// exists, and with domain.ErrModelNotRegistered when the configuration
// names a model this process cannot invoke (a deploy/config mismatch).
func (s *Switchboard) Resolve(ctx context.Context, stage domain.Stage) (Invoker, *domain.ModelConfig, error) {
	cfg, err := s.configs.ActiveForStage(ctx, stage)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve stage %s: %w", stage, err)
	}
	inv, ok := s.invokers[cfg.ModelName]
	if !ok {
		return nil, nil, fmt.Errorf("resolve stage %s: model %q: %w", stage, cfg.ModelName, domain.ErrModelNotRegistered)
	}
	s.logger.Debug().
		Str("stage", string(stage)).
		Str("model", cfg.ModelName).
		Int("priority", cfg.Priority).
		Msg("switchboard: resolved model")
	return inv, cfg, nil
}

// RegisteredModels returns the model names this process can invoke. Used
// by the operator surface.
func (s *Switchboard) RegisteredModels() []string {
	names := make([]string, 0, len(s.invokers))
	for name := range s.invokers {
		names = append(names, name)
	}
	return names
}
