package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/provendata/pacertrack/internal/model"
)

// RegionServiceInterface は地域管理ハンドラーが必要とするサービスインターフェース。
type RegionServiceInterface interface {
	List(ctx context.Context) ([]*model.Region, error)
	Create(ctx context.Context, regionName string) (*model.Region, error)
	Update(ctx context.Context, id int, regionName string) error
	Delete(ctx context.Context, id int) error
}

// RegionHandler は地域管理のHTTPハンドラー。すべての操作は管理者権限を要する。
type RegionHandler struct {
	service RegionServiceInterface
}

// NewRegionHandler はRegionHandlerを生成する。
func NewRegionHandler(service RegionServiceInterface) *RegionHandler {
	return &RegionHandler{service: service}
}

// regionRequest は地域の登録・更新リクエストのボディ。
type regionRequest struct {
	RegionName string `json:"region_name"`
}

// regionResponse は地域情報のAPIレスポンス。
type regionResponse struct {
	ID         int    `json:"id"`
	RegionName string `json:"region_name"`
}

// List は登録済み地域の一覧を返す。
// GET /api/regions
func (h *RegionHandler) List(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]regionResponse, 0, len(regions))
	for _, region := range regions {
		responses = append(responses, toRegionResponse(region))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Create は新しい地域を登録する。
// POST /api/regions
func (h *RegionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req regionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	region, err := h.service.Create(r.Context(), req.RegionName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRegionResponse(region))
}

// Update は地域名を変更する。
// PATCH /api/regions/:id
func (h *RegionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req regionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.Update(r.Context(), id, req.RegionName); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete は地域を削除する。
// DELETE /api/regions/:id
func (h *RegionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toRegionResponse はmodel.RegionからAPIレスポンスに変換する。
func toRegionResponse(region *model.Region) regionResponse {
	return regionResponse{
		ID:         region.ID,
		RegionName: region.RegionName,
	}
}

// parseIDParam はパスパラメータのIDを整数として解析する。
// 解析に失敗した場合は400を書き込みfalseを返す。
func parseIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "IDの形式が正しくありません。",
			Category: "validation",
			Action:   "数値のIDを指定してください。",
		})
		return 0, false
	}
	return id, true
}
