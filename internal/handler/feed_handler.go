package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/provendata/pacertrack/internal/model"
)

// defaultFilingListLimit は提出イベント一覧のデフォルト上限件数。
const defaultFilingListLimit = 100

// FeedServiceInterface はフィード管理ハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	List(ctx context.Context) ([]*model.CourtFeed, error)
	Create(ctx context.Context, courtID, feedURL string) (*model.CourtFeed, error)
	Delete(ctx context.Context, id int) error
}

// FilingLister はRSS由来の提出イベント一覧を取得するインターフェース。
// repository.FilingRepositoryの部分集合として定義する。
type FilingLister interface {
	ListByCourt(ctx context.Context, courtID string, limit int) ([]*model.Filing, error)
}

// FeedHandler はRSSフィード管理と提出イベント閲覧のHTTPハンドラー。
type FeedHandler struct {
	service FeedServiceInterface
	filings FilingLister
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service FeedServiceInterface, filings FilingLister) *FeedHandler {
	return &FeedHandler{
		service: service,
		filings: filings,
	}
}

// createFeedRequest はフィード登録リクエストのボディ。
type createFeedRequest struct {
	CourtID string `json:"court_id"`
	FeedURL string `json:"feed_url"`
}

// feedResponse はフィード情報のAPIレスポンス。
type feedResponse struct {
	ID            int     `json:"id"`
	CourtID       string  `json:"court_id"`
	FeedURL       string  `json:"feed_url"`
	LastFetchedAt *string `json:"last_fetched_at"`
}

// filingResponse は提出イベントのAPIレスポンス。
type filingResponse struct {
	ID          string  `json:"id"`
	CourtID     string  `json:"court_id"`
	CaseNumber  string  `json:"case_number"`
	Title       string  `json:"title"`
	Link        string  `json:"link"`
	PublishedAt *string `json:"published_at"`
}

// List は登録済みフィードの一覧を返す。
// GET /api/feeds
func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]feedResponse, 0, len(feeds))
	for _, feed := range feeds {
		responses = append(responses, toFeedResponse(feed))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Create は新しいフィードを登録する。
// POST /api/feeds
func (h *FeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	feed, err := h.service.Create(r.Context(), req.CourtID, req.FeedURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFeedResponse(feed))
}

// Delete はフィードを削除する。
// DELETE /api/feeds/:id
func (h *FeedHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// ListFilings はRSSから取り込んだ提出イベントの一覧を返す。
// GET /api/filings?court_id=xxx&limit=N
func (h *FeedHandler) ListFilings(w http.ResponseWriter, r *http.Request) {
	limit := defaultFilingListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_REQUEST",
				Message:  "limitの形式が正しくありません。",
				Category: "validation",
				Action:   "limitには0以上の整数を指定してください。",
			})
			return
		}
		limit = parsed
	}

	filings, err := h.filings.ListByCourt(r.Context(), r.URL.Query().Get("court_id"), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]filingResponse, 0, len(filings))
	for _, filing := range filings {
		responses = append(responses, toFilingResponse(filing))
	}
	writeJSON(w, http.StatusOK, responses)
}

// toFeedResponse はmodel.CourtFeedからAPIレスポンスに変換する。
func toFeedResponse(feed *model.CourtFeed) feedResponse {
	return feedResponse{
		ID:            feed.ID,
		CourtID:       feed.CourtID,
		FeedURL:       feed.FeedURL,
		LastFetchedAt: formatTimePtr(feed.LastFetchedAt),
	}
}

// toFilingResponse はmodel.FilingからAPIレスポンスに変換する。
func toFilingResponse(filing *model.Filing) filingResponse {
	return filingResponse{
		ID:          filing.ID,
		CourtID:     filing.CourtID,
		CaseNumber:  filing.CaseNumber,
		Title:       filing.Title,
		Link:        filing.Link,
		PublishedAt: formatTimePtr(filing.PublishedAt),
	}
}

// formatTimePtr は時刻ポインタをRFC3339文字列に変換する。nilはnilのまま返す。
func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
