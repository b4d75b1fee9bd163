package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/provendata/pacertrack/internal/model"
)

// UserServiceInterface はユーザー管理ハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context) ([]*model.User, error)
	Create(ctx context.Context, username, password, permission string) error
	UpdatePermission(ctx context.Context, username, permission string) error
	Delete(ctx context.Context, username string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。すべての操作は管理者権限を要する。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// createUserRequest はユーザー登録リクエストのボディ。
type createUserRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Permission string `json:"permission"`
}

// updatePermissionRequest は権限変更リクエストのボディ。
type updatePermissionRequest struct {
	Permission string `json:"permission"`
}

// List はユーザー一覧を返す。
// GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]userResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Create は新しいユーザーを登録する。
// POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.Create(r.Context(), req.Username, req.Password, req.Permission); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		Username:   req.Username,
		Permission: req.Permission,
	})
}

// UpdatePermission はユーザーの権限を変更する。
// PATCH /api/users/:username
func (h *UserHandler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req updatePermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.UpdatePermission(r.Context(), username, req.Permission); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete はユーザーを削除する。
// DELETE /api/users/:username
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := h.service.Delete(r.Context(), username); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
