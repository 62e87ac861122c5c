package store

import "context"

func (q *Queries) GetAdminByUsername(ctx context.Context, username string) (Admin, error) {
	var a Admin
	err := q.db.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`, username).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	return a, notFound(err)
}

// UpsertAdmin creates the admin or replaces its password hash.
func (q *Queries) UpsertAdmin(ctx context.Context, username, passwordHash string) (Admin, error) {
	var a Admin
	err := q.db.QueryRow(ctx, `
		INSERT INTO admins (username, password_hash) VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
		RETURNING id, username, password_hash, created_at`, username, passwordHash).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	return a, err
}
