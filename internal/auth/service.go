// Package auth はセッションベースの認証機能を提供する。
// ログイン成功時にUUIDのセッションIDを発行し、サーバ側のセッションテーブルで
// 有効期限を管理する。パスワードはbcryptハッシュで照合する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/provendata/pacertrack/internal/model"
	"github.com/provendata/pacertrack/internal/repository"
)

// Service は認証サービス。
type Service struct {
	userRepo      repository.UserRepository
	sessionRepo   repository.SessionRepository
	logger        *slog.Logger
	sessionMaxAge time.Duration
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, logger *slog.Logger, sessionMaxAge time.Duration) *Service {
	return &Service{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		logger:        logger,
		sessionMaxAge: sessionMaxAge,
	}
}

// Login は認証情報を検証し、新しいセッションを発行する。
// ユーザーが存在しない場合とパスワードが一致しない場合のエラーは区別せず、
// どちらも同一のInvalidCredentialsエラーを返す（ユーザー名の存在を漏らさない）。
func (s *Service) Login(ctx context.Context, username, password string) (*model.Session, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		s.logger.Info("ログイン失敗: ユーザーが存在しません",
			slog.String("username", username),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("ログイン失敗: パスワードが一致しません",
			slog.String("username", username),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	now := time.Now()
	session := &model.Session{
		ID:        uuid.NewString(),
		Username:  user.Username,
		ExpiresAt: now.Add(s.sessionMaxAge),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}

	s.logger.Info("ログインしました",
		slog.String("username", username),
		slog.String("permission", string(user.Permission)),
	)
	return session, nil
}

// Logout はセッションを破棄する。
// 存在しないセッションIDの場合もエラーにしない（冪等）。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}
	return nil
}

// CurrentUser はセッションIDから現在のユーザーを解決する。
// セッションが存在しない・期限切れ・対応するユーザーが削除済みの場合は
// Unauthorizedエラーを返す。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("セッションの検索に失敗しました: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByUsername(ctx, session.Username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	return user, nil
}
