package mysql

import (
	"context"
	"database/sql"

	"github.com/bryanwahyu/automaton-code/internal/infra/db"
)

const selectRemediations = "SELECT `finding_type`, `solution` FROM `remediations` WHERE `enabled` = 1"

type RemediationRepository struct{ db *sql.DB }

func NewRemediationRepository(conn *sql.DB) *RemediationRepository {
	return &RemediationRepository{db: conn}
}

// LoadRemediations returns the enabled catalog rows keyed by finding type.
func (r *RemediationRepository) LoadRemediations(ctx context.Context) (map[string]string, error) {
	return db.LoadRemediations(ctx, r.db, selectRemediations)
}
