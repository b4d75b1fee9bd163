// Package caseload は事件ロードのコアエンジンを提供する。
// PCL検索結果のレコード列を検証・変換し、事件テーブルへUPSERTする。
package caseload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/provendata/pacertrack/internal/model"
	"github.com/provendata/pacertrack/internal/repository"
	"github.com/provendata/pacertrack/internal/security"
)

// ecfQueryBaseURL は事件詳細参照URLのベース。
// CM/ECFの照会CGIに事件番号を渡す形式で、summary・parties・attorneysの
// 3つの参照URLを導出する。
const ecfQueryBaseURL = "https://ecf.casd.uscourts.gov/cgi-bin"

// UpsertResult は1回のロード実行の集計結果を表す。
// 各レコードの書き込みは独立しており、1件の失敗は他のレコードに影響しない。
type UpsertResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Total は処理対象となったレコードの総数を返す。
func (r UpsertResult) Total() int {
	return r.Inserted + r.Updated + r.Skipped + r.Failed
}

// Engine は検索結果レコードの変換とUPSERTを行う。
type Engine struct {
	caseRepo  repository.CaseRepository
	sanitizer security.TextSanitizerService
	logger    *slog.Logger
}

// NewEngine はEngineの新しいインスタンスを生成する。
func NewEngine(caseRepo repository.CaseRepository, sanitizer security.TextSanitizerService, logger *slog.Logger) *Engine {
	return &Engine{
		caseRepo:  caseRepo,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// UpsertRecords は検索結果のレコード列を順にUPSERTし、集計結果を返す。
//
//   - caseIdを持たないレコードは照合キーが無いためスキップする。
//   - 同一caseIdの再取得は既存行の可変フィールドを全て上書きする（重複行は作らない）。
//   - 1件の書き込み失敗はログに記録して次のレコードへ進む。
//
// 同一の検索結果を2回適用しても行数は増えない（2回目は全件更新になる）。
func (e *Engine) UpsertRecords(ctx context.Context, records []model.CaseRecord) UpsertResult {
	var result UpsertResult

	for _, record := range records {
		if record.CaseID.String() == "" {
			e.logger.Warn("caseIdを持たないレコードをスキップします",
				slog.String("case_number", record.CaseNumber),
				slog.String("court_id", record.CourtID),
			)
			result.Skipped++
			continue
		}

		pacerCase := e.buildCase(record)

		inserted, err := e.caseRepo.Upsert(ctx, pacerCase)
		if err != nil {
			e.logger.Error("事件のUPSERTに失敗しました",
				slog.String("case_id", pacerCase.CaseID),
				slog.String("error", err.Error()),
			)
			result.Failed++
			continue
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	return result
}

// buildCase は受信レコードを永続化用の事件行に変換する。
// 欠落フィールドはゼロ値で許容し、レコード全体は捨てない。
func (e *Engine) buildCase(record model.CaseRecord) *model.PacerCase {
	pacerCase := &model.PacerCase{
		CaseID:           record.CaseID.String(),
		CourtID:          record.CourtID,
		CaseNumber:       record.CaseNumber,
		CaseType:         record.CaseType,
		CaseTitle:        e.sanitizer.SanitizeText(record.CaseTitle),
		DateFiled:        parseDateFiled(record.DateFiled),
		JurisdictionType: record.JurisdictionType,
		CaseLink:         record.CaseLink,
	}

	// 参照URLの導出はオール・オア・ナッシング:
	// caseNumberが無ければ3つともnilのままにする
	if record.CaseNumber != "" {
		pacerCase.CaseSummary = deriveLink("qrySummary.pl", record.CaseNumber)
		pacerCase.Parties = deriveLink("qryParties.pl", record.CaseNumber)
		pacerCase.Attorney = deriveLink("qryAttorneys.pl", record.CaseNumber)
	}

	return pacerCase
}

// parseDateFiled は "2006-01-02" 形式の申立日をパースする。
// 空文字列または不正な形式の場合はnilを返し、レコード自体は保存対象のまま残す。
func parseDateFiled(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}

// deriveLink はCM/ECF照会CGIの参照URLを導出する。
func deriveLink(script, caseNumber string) *string {
	link := fmt.Sprintf("%s/%s?%s", ecfQueryBaseURL, script, caseNumber)
	return &link
}
