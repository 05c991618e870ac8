package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vettrack/vettrack/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const logCols = `id, actor_user_id, actor_display, entity_type, entity_id, action, diff, origin_ip, occurred_at`

func (r *repoPG) Insert(ctx context.Context, l *Log) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_log (id, actor_user_id, actor_display, entity_type, entity_id, action, diff, origin_ip, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		l.ID, l.ActorUserID, l.ActorDisplay, l.EntityType, l.EntityID, l.Action, l.Diff, l.OriginIP, l.OccurredAt,
	)
	return err
}

func (r *repoPG) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*Log, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE entity_type = $1 AND entity_id = $2`,
		entityType, entityID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+logCols+` FROM audit_log WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY occurred_at DESC LIMIT $3 OFFSET $4`,
		entityType, entityID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectLogs(rows, total)
}

func (r *repoPG) ListByActor(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Log, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE actor_user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+logCols+` FROM audit_log WHERE actor_user_id = $1
		 ORDER BY occurred_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectLogs(rows, total)
}

func collectLogs(rows pgx.Rows, total int) ([]*Log, int, error) {
	var logs []*Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.ActorUserID, &l.ActorDisplay, &l.EntityType, &l.EntityID,
			&l.Action, &l.Diff, &l.OriginIP, &l.OccurredAt); err != nil {
			return nil, 0, err
		}
		logs = append(logs, &l)
	}
	return logs, total, nil
}
