package storage

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema/01_create_users.up.sql
var createUsersUp string

//go:embed schema/02_create_tasks.up.sql
var createTasksUp string

//go:embed schema/03_create_comments.up.sql
var createCommentsUp string

// Bootstrap applies the schema on startup. Every statement is
// IF NOT EXISTS, so reruns are harmless. The email uniqueness
// constraint lives here: a concurrent duplicate registration loses
// with a unique violation instead of creating a second row.
func (p *Postgres) Bootstrap(ctx context.Context) error {
	p.logger.Debug().Msg("applying schema")

	for _, stmt := range []string{createUsersUp, createTasksUp, createCommentsUp} {
		if _, err := p.pgPool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	p.logger.Debug().Msg("schema applied")
	return nil
}
