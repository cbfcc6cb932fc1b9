package database

import (
	"context"
	"fmt"

	"github.com/devguard/devguard/internal/analysis/model"
)

// ActiveProjects returns all projects the analyzers should visit.
// Inactive projects are filtered here so no analyzer ever sees them.
func (s *Store) ActiveProjects(ctx context.Context) ([]*model.Project, error) {
	const q = `
	SELECT id, organization_id, name, is_active
	FROM projects
	WHERE is_active
	ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query active projects: %w", err)
	}
	defer rows.Close()

	var out []*model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
