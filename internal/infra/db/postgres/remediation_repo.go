package postgres

import (
	"context"
	"database/sql"

	"github.com/bryanwahyu/automaton-code/internal/infra/db"
)

const selectRemediations = `SELECT finding_type, solution FROM remediations WHERE enabled`

type RemediationRepository struct{ db *sql.DB }

func NewRemediationRepository(conn *sql.DB) *RemediationRepository {
	return &RemediationRepository{db: conn}
}

func (r *RemediationRepository) LoadRemediations(ctx context.Context) (map[string]string, error) {
	return db.LoadRemediations(ctx, r.db, selectRemediations)
}
