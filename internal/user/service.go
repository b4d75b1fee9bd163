// Package user はユーザー管理機能を提供する。
// ユーザーの一覧・登録・権限変更・削除はすべて管理者権限の操作。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/provendata/pacertrack/internal/model"
	"github.com/provendata/pacertrack/internal/repository"
)

// Service はユーザー管理サービス。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, logger *slog.Logger) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// List は登録済みユーザーを全件返す。
// パスワードハッシュは応答に含めないためクリアして返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users, nil
}

// Create は新しいユーザーを登録する。
// 権限はadmin・edit・browseのいずれかのみ受け付ける。
// パスワードはbcryptでハッシュ化して保存し、平文は保持しない。
func (s *Service) Create(ctx context.Context, username, password, permission string) error {
	if username == "" || password == "" {
		return model.NewInvalidCredentialsError()
	}

	perm, ok := model.ParsePermission(permission)
	if !ok {
		return model.NewInvalidPermissionError(permission)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("パスワードハッシュの生成に失敗しました: %w", err)
	}

	newUser := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Permission:   perm,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if repository.IsUniqueViolation(err) {
			return model.NewUserExistsError(username)
		}
		return fmt.Errorf("ユーザーの登録に失敗しました: %w", err)
	}

	s.logger.Info("ユーザーを登録しました",
		slog.String("username", username),
		slog.String("permission", string(perm)),
	)
	return nil
}

// UpdatePermission はユーザーの権限を変更する。
// 変更後は当該ユーザーの既存セッションをすべて破棄し、
// 古い権限のままセッションが使い続けられることを防ぐ。
func (s *Service) UpdatePermission(ctx context.Context, username, permission string) error {
	perm, ok := model.ParsePermission(permission)
	if !ok {
		return model.NewInvalidPermissionError(permission)
	}

	if err := s.userRepo.UpdatePermission(ctx, username, perm); err != nil {
		return err
	}

	if err := s.sessionRepo.DeleteByUsername(ctx, username); err != nil {
		return fmt.Errorf("セッションの破棄に失敗しました: %w", err)
	}

	s.logger.Info("ユーザーの権限を変更しました",
		slog.String("username", username),
		slog.String("permission", string(perm)),
	)
	return nil
}

// Delete はユーザーを削除する。当該ユーザーのセッションも同時に破棄される。
func (s *Service) Delete(ctx context.Context, username string) error {
	if err := s.userRepo.Delete(ctx, username); err != nil {
		return err
	}

	if err := s.sessionRepo.DeleteByUsername(ctx, username); err != nil {
		return fmt.Errorf("セッションの破棄に失敗しました: %w", err)
	}

	s.logger.Info("ユーザーを削除しました", slog.String("username", username))
	return nil
}
