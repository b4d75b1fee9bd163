package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/provendata/pacertrack/internal/caseload"
	"github.com/provendata/pacertrack/internal/model"
)

// defaultCaseListLimit は一覧取得のデフォルト上限件数。
const defaultCaseListLimit = 100

// CaseServiceInterface は事件ハンドラーが必要とするサービスインターフェース。
type CaseServiceInterface interface {
	// LoadMore はPACERから事件を取得しローカルテーブルにマージする。
	LoadMore(ctx context.Context, dateFrom, dateTo, regionName string) (*caseload.UpsertResult, error)
	// ListCases はローカルに保存済みの事件を返す。
	ListCases(ctx context.Context, limit int) ([]*model.PacerCase, error)
}

// CaseHandler は事件閲覧ページのHTTPハンドラー。
type CaseHandler struct {
	service CaseServiceInterface
}

// NewCaseHandler はCaseHandlerを生成する。
func NewCaseHandler(service CaseServiceInterface) *CaseHandler {
	return &CaseHandler{service: service}
}

// loadCasesRequest は事件ロードリクエストのボディ。
type loadCasesRequest struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	Region   string `json:"region"`
}

// caseResponse は事件情報のAPIレスポンス。
// dateFiledと参照URL群は値が無い場合nullになる。
type caseResponse struct {
	CaseID           string  `json:"caseId"`
	CourtID          string  `json:"courtId"`
	CaseNumber       string  `json:"caseNumber"`
	CaseType         string  `json:"caseType"`
	CaseTitle        string  `json:"caseTitle"`
	DateFiled        *string `json:"dateFiled"`
	JurisdictionType string  `json:"jurisdictionType"`
	CaseLink         string  `json:"caseLink"`
	CaseSummary      *string `json:"caseSummary"`
	Parties          *string `json:"parties"`
	Attorney         *string `json:"attorney"`
}

// List は保存済み事件の一覧をdate_filed降順で返す。
// GET /api/cases?limit=N
func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultCaseListLimit
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

	cases, err := h.service.ListCases(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]caseResponse, 0, len(cases))
	for _, c := range cases {
		responses = append(responses, toCaseResponse(c))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Load はPACER検索と取り込みを実行し、件数の内訳を返す。
// 検索自体の失敗は0件の結果と区別されず、空の内訳が返る。
// POST /api/cases/load
func (h *CaseHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req loadCasesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	result, err := h.service.LoadMore(r.Context(), req.DateFrom, req.DateTo, req.Region)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// toCaseResponse はmodel.PacerCaseからAPIレスポンスに変換する。
func toCaseResponse(c *model.PacerCase) caseResponse {
	var dateFiled *string
	if c.DateFiled != nil {
		formatted := c.DateFiled.Format("2006-01-02")
		dateFiled = &formatted
	}

	return caseResponse{
		CaseID:           c.CaseID,
		CourtID:          c.CourtID,
		CaseNumber:       c.CaseNumber,
		CaseType:         c.CaseType,
		CaseTitle:        c.CaseTitle,
		DateFiled:        dateFiled,
		JurisdictionType: c.JurisdictionType,
		CaseLink:         c.CaseLink,
		CaseSummary:      c.CaseSummary,
		Parties:          c.Parties,
		Attorney:         c.Attorney,
	}
}
