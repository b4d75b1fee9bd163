package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/provendata/pacertrack/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	var permission string

	err := r.db.QueryRowContext(ctx,
		`SELECT username, password_hash, permission, created_at, updated_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&user.Username, &user.PasswordHash, &permission, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}

	user.Permission = model.Permission(permission)
	return user, nil
}

// List は全ユーザーをユーザー名昇順で返す。
// テーブル未作成の場合は空スライスを返す（読み取りは呼び出し元を失敗させない）。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT username, password_hash, permission, created_at, updated_at
		 FROM users ORDER BY username`,
	)
	if err != nil {
		if isUndefinedTable(err) {
			return []*model.User{}, nil
		}
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user := &model.User{}
		var permission string
		if err := rows.Scan(&user.Username, &user.PasswordHash, &permission, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ユーザー行のスキャンに失敗しました: %w", err)
		}
		user.Permission = model.Permission(permission)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ユーザー一覧の走査に失敗しました: %w", err)
	}

	return users, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, permission, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.Username, user.PasswordHash, string(user.Permission), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdatePermission は指定ユーザーの権限を更新する。
func (r *PostgresUserRepo) UpdatePermission(ctx context.Context, username string, permission model.Permission) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET permission = $1, updated_at = now() WHERE username = $2`,
		string(permission), username,
	)
	if err != nil {
		return fmt.Errorf("権限の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError(username)
	}
	return nil
}

// Delete は指定ユーザーを削除する。関連セッションはCASCADE削除される。
func (r *PostgresUserRepo) Delete(ctx context.Context, username string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE username = $1`,
		username,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError(username)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
