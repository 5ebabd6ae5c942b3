package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reelcraft/internal/domain"
)

// ModelConfigRepositoryPG implements domain.ModelConfigRepository.
type ModelConfigRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewModelConfigRepository creates a model configuration repository backed
// by PostgreSQL.
func NewModelConfigRepository(pool *pgxpool.Pool) *ModelConfigRepositoryPG {
	return &ModelConfigRepositoryPG{pool: pool}
}

// ActiveForStage returns the highest-priority active configuration for the
// stage. Read on every resolution so operators can swap models live.
func (r *ModelConfigRepositoryPG) ActiveForStage(ctx context.Context, stage domain.Stage) (*domain.ModelConfig, error) {
	query := `
SELECT id, stage, model_name, is_active, priority, config, COALESCE(fallback_model_id, ''), created_at, updated_at
FROM model_configs
WHERE stage = $1 AND is_active = TRUE
ORDER BY priority DESC
LIMIT 1;
`
	row := r.pool.QueryRow(ctx, query, stage)
	var cfg domain.ModelConfig
	if err := row.Scan(
		&cfg.ID,
		&cfg.Stage,
		&cfg.ModelName,
		&cfg.IsActive,
		&cfg.Priority,
		&cfg.Config,
		&cfg.FallbackModelID,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStageNotConfigured
		}
		return nil, err
	}
	return &cfg, nil
}

var _ domain.ModelConfigRepository = (*ModelConfigRepositoryPG)(nil)
