package interactions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/go-place-recs/internal/types"
)

// PgxPool is the slice of pgxpool.Pool the repository needs. pgxmock
// implements it for tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

var _ Repository = (*PostgresInteractionRepo)(nil)

// Repository is the write-only contract for the assistant audit log.
// Stored interactions never feed back into the recommendation flow.
type Repository interface {
	SaveInteraction(ctx context.Context, interaction types.AssistantInteraction) (uuid.UUID, error)
}

type PostgresInteractionRepo struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewPostgresInteractionRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresInteractionRepo {
	return &PostgresInteractionRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

func (r *PostgresInteractionRepo) SaveInteraction(ctx context.Context, interaction types.AssistantInteraction) (uuid.UUID, error) {
	query := `
        INSERT INTO assistant_interactions (
            id, session_id, kind, prompt, response_text, model_used, latency_ms
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	id := interaction.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := r.pgpool.Exec(ctx, query,
		id, interaction.SessionID, interaction.Kind, interaction.Prompt,
		interaction.ResponseText, interaction.ModelUsed, interaction.LatencyMs,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save assistant interaction: %w", err)
	}
	return id, nil
}
