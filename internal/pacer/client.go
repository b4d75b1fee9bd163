// Package pacer はPACER Case Locator（PCL）REST APIのクライアントを提供する。
// 認証エンドポイントでベアラートークンを取得し、事件検索エンドポイントに
// フィルタ付き検索を発行する。トークンは永続化せず、1回の認証→検索サイクル
// のみに使用する。リフレッシュは実装しない。
//
// APIガイド: https://pacer.uscourts.gov/sites/default/files/files/PCL-API-Document_4.pdf
package pacer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/provendata/pacertrack/internal/model"
)

const (
	// tokenHeader はPCL検索APIのトークンヘッダー名。
	tokenHeader = "X-NEXT-GEN-CSO"
	// jurisdictionCriminal は刑事事件の管轄種別コード。
	jurisdictionCriminal = "cr"
	// caseStatusOpen はオープン事件の状態コード。
	caseStatusOpen = "O"
)

// Client はPCL APIのクライアント。
// authURLとapiRootはテスト用に差し替え可能。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	authURL    string
	apiRoot    string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, authURL, apiRoot string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		authURL:    authURL,
		apiRoot:    apiRoot,
	}
}

// authRequest は認証エンドポイントへのリクエストボディ。
type authRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

// authResponse は認証エンドポイントのレスポンスボディ。
// nextGenCSO以外のフィールドは使用しない。
type authResponse struct {
	NextGenCSO string `json:"nextGenCSO"`
}

// searchRequest は事件検索エンドポイントへのフィルタペイロード。
// 管轄種別は刑事、事件状態はオープンに固定される。
type searchRequest struct {
	DateFiledFrom    string   `json:"dateFiledFrom"`
	DateFiledTo      string   `json:"dateFiledTo,omitempty"`
	JurisdictionType string   `json:"jurisdictionType"`
	CaseStatus       string   `json:"caseStatus"`
	CourtID          []string `json:"courtId,omitempty"`
}

// searchResponse は事件検索エンドポイントのレスポンスエンベロープ。
// 事件リストは "content"（ページング形式）と "cases"（旧形式）の
// どちらかに入るため、両方を受けてcontent優先で解決する。
type searchResponse struct {
	Content  []model.CaseRecord `json:"content"`
	Cases    []model.CaseRecord `json:"cases"`
	PageInfo *struct {
		TotalElements int `json:"totalElements"`
	} `json:"pageInfo"`
	Receipt *struct {
		SearchFee     json.Number `json:"searchFee"`
		BillablePages int         `json:"billablePages"`
	} `json:"receipt"`
}

// Authenticate は認証エンドポイントに認証情報を送信し、nextGenCSOトークンを返す。
// HTTP呼び出しの失敗、非2xxステータス、トークンフィールドの欠落のいずれの場合も
// 空トークンとエラーを返す。リトライは行わず、1回の試行のみ。
// 呼び出し元はトークンの空チェックで分岐し、空の場合はフェッチ全体を中止する。
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(authRequest{LoginID: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("認証リクエストの構築に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("認証リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("PACER認証エンドポイントの呼び出しに失敗しました",
			slog.String("auth_url", c.authURL),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("認証エンドポイントの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("PACER認証がエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("PACER認証がステータス %d を返しました", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("認証レスポンスの読み取りに失敗しました: %w", err)
	}

	var auth authResponse
	if err := json.Unmarshal(respBody, &auth); err != nil {
		return "", fmt.Errorf("認証レスポンスのパースに失敗しました: %w", err)
	}

	if auth.NextGenCSO == "" {
		c.logger.Error("PACER認証レスポンスにトークンが含まれていません")
		return "", fmt.Errorf("認証レスポンスにnextGenCSOトークンがありません")
	}

	return auth.NextGenCSO, nil
}

// SearchCasesByDate は事件検索エンドポイントに日付範囲フィルタ付きの検索を発行し、
// 1ページ分の事件レコードを返す。
//
//   - トークンが空の場合は検索を行わず空スライスを返す。
//   - 非成功ステータスの場合はエラーにせず空スライスを返す（ログのみ）。
//   - ページングは呼び出し元駆動であり、このメソッドは自動で次ページを辿らない。
func (c *Client) SearchCasesByDate(ctx context.Context, token string, query model.SearchQuery, page int) ([]model.CaseRecord, error) {
	if token == "" {
		c.logger.Warn("トークンが無いため事件検索をスキップします")
		return []model.CaseRecord{}, nil
	}

	payload := searchRequest{
		DateFiledFrom:    query.DateFrom,
		DateFiledTo:      query.DateTo,
		JurisdictionType: jurisdictionCriminal,
		CaseStatus:       caseStatusOpen,
	}
	if query.CourtID != "" {
		// courtIdはリスト形式で送信する（単一要素）
		payload.CourtID = []string{query.CourtID}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("検索リクエストの構築に失敗しました: %w", err)
	}

	url := fmt.Sprintf("%s/cases/find?page=%d", c.apiRoot, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("検索リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(tokenHeader, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("PACER事件検索の呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("事件検索の呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("PACER事件検索がエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.Int("page", page),
		)
		return []model.CaseRecord{}, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("検索レスポンスの読み取りに失敗しました: %w", err)
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		c.logger.Error("PACER検索レスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return []model.CaseRecord{}, nil
	}

	// PRODでは課金情報がreceiptに入る
	if result.Receipt != nil {
		c.logger.Info("PACER検索レシート",
			slog.String("search_fee", result.Receipt.SearchFee.String()),
			slog.Int("billable_pages", result.Receipt.BillablePages),
		)
	}

	// エンベロープの解決: content優先、次にcases、どちらも無ければ空
	cases := result.Content
	if len(cases) == 0 {
		cases = result.Cases
	}
	if cases == nil {
		cases = []model.CaseRecord{}
	}

	total := len(cases)
	if result.PageInfo != nil {
		total = result.PageInfo.TotalElements
	}
	c.logger.Info("PACER事件検索が完了しました",
		slog.Int("page", page),
		slog.Int("page_count", len(cases)),
		slog.Int("total_elements", total),
	)

	return cases, nil
}
