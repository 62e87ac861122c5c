package store

import (
	"context"
	"encoding/json"
	"fmt"
)

const auditColumns = `id, admin, action, resource_type, resource_id, method, path, status, ip, user_agent, request_id, metadata, created_at`

type InsertAuditLogParams struct {
	Admin        *string
	Action       string
	ResourceType string
	ResourceID   *string
	Method       string
	Path         string
	Status       int32
	IP           *string
	UserAgent    *string
	RequestID    *string
	Metadata     json.RawMessage
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO audit_logs (admin, action, resource_type, resource_id, method, path, status, ip, user_agent, request_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		arg.Admin, arg.Action, arg.ResourceType, arg.ResourceID, arg.Method, arg.Path, arg.Status,
		arg.IP, arg.UserAgent, arg.RequestID, []byte(arg.Metadata)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert audit log: %w", err)
	}
	return id, nil
}

type ListAuditLogsParams struct {
	ResourceType string
	Limit        int32
	Offset       int32
}

func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+auditColumns+` FROM audit_logs
		WHERE ($1 = '' OR resource_type = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, arg.ResourceType, arg.Limit, arg.Offset)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var items []AuditLog
	for rows.Next() {
		var a AuditLog
		var metadata []byte
		if err := rows.Scan(&a.ID, &a.Admin, &a.Action, &a.ResourceType, &a.ResourceID, &a.Method, &a.Path,
			&a.Status, &a.IP, &a.UserAgent, &a.RequestID, &metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Metadata = metadata
		items = append(items, a)
	}
	return items, rows.Err()
}

func (q *Queries) CountAuditLogs(ctx context.Context, resourceType string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs WHERE ($1 = '' OR resource_type = $1)`, resourceType).Scan(&n)
	return n, err
}
