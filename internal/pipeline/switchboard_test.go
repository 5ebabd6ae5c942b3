package pipeline

import (
	"context"
	"errors"
	"testing"

	"reelcraft/internal/domain"
)

func TestSwitchboardResolvesActiveModel(t *testing.T) {
	configs := &memModelConfigs{configs: map[domain.Stage]*domain.ModelConfig{
		domain.StageExtractor: {
			ID:        "cfg-1",
			Stage:     domain.StageExtractor,
			ModelName: "birefnet",
			IsActive:  true,
			Priority:  10,
			Config:    map[string]any{"operating_resolution": "2048x2048"},
		},
	}}
	birefnet := &fakeInvoker{name: "birefnet", fn: func(Invocation) (InvocationResult, error) {
		return InvocationResult{OutputURL: "out"}, nil
	}}
	sb := NewSwitchboard(configs, testLogger(), birefnet)

	inv, cfg, err := sb.Resolve(context.Background(), domain.StageExtractor)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if inv.ModelName() != "birefnet" {
		t.Fatalf("resolved model %q, want birefnet", inv.ModelName())
	}
	if cfg.ID != "cfg-1" {
		t.Fatalf("resolved config %q, want cfg-1", cfg.ID)
	}
	if got := cfg.ConfigString("operating_resolution", ""); got != "2048x2048" {
		t.Fatalf("config blob lost: %q", got)
	}
}

func TestSwitchboardUnconfiguredStage(t *testing.T) {
	sb := NewSwitchboard(&memModelConfigs{configs: map[domain.Stage]*domain.ModelConfig{}}, testLogger())

	_, _, err := sb.Resolve(context.Background(), domain.StageCinematographer)
	if !errors.Is(err, domain.ErrStageNotConfigured) {
		t.Fatalf("want ErrStageNotConfigured, got %v", err)
	}
}

func TestSwitchboardUnregisteredModel(t *testing.T) {
	configs := &memModelConfigs{configs: map[domain.Stage]*domain.ModelConfig{
		domain.StageCinematographer: {
			ID:        "cfg-2",
			Stage:     domain.StageCinematographer,
			ModelName: "veo-3",
			IsActive:  true,
		},
	}}
	sb := NewSwitchboard(configs, testLogger())

	_, _, err := sb.Resolve(context.Background(), domain.StageCinematographer)
	if !errors.Is(err, domain.ErrModelNotRegistered) {
		t.Fatalf("want ErrModelNotRegistered, got %v", err)
	}
}
