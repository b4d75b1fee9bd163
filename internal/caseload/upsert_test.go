package caseload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/provendata/pacertrack/internal/model"
	"github.com/provendata/pacertrack/internal/security"
)

// mockCaseRepo はCaseRepositoryのモック実装。
// インメモリのマップで行の有無を管理し、UPSERTの挿入/更新判定を再現する。
type mockCaseRepo struct {
	store       map[string]*model.PacerCase
	failCaseIDs map[string]bool
}

func newMockCaseRepo() *mockCaseRepo {
	return &mockCaseRepo{
		store:       make(map[string]*model.PacerCase),
		failCaseIDs: make(map[string]bool),
	}
}

func (m *mockCaseRepo) List(ctx context.Context, limit int) ([]*model.PacerCase, error) {
	cases := make([]*model.PacerCase, 0, len(m.store))
	for _, c := range m.store {
		cases = append(cases, c)
	}
	return cases, nil
}

func (m *mockCaseRepo) Upsert(ctx context.Context, pacerCase *model.PacerCase) (bool, error) {
	if m.failCaseIDs[pacerCase.CaseID] {
		return false, errors.New("書き込み失敗")
	}
	_, exists := m.store[pacerCase.CaseID]
	m.store[pacerCase.CaseID] = pacerCase
	return !exists, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestEngine(repo *mockCaseRepo) *Engine {
	return NewEngine(repo, security.NewTextSanitizer(), newTestLogger())
}

func record(caseID, caseNumber, title, dateFiled string) model.CaseRecord {
	return model.CaseRecord{
		CaseID:           json.Number(caseID),
		CourtID:          "casdc",
		CaseNumber:       caseNumber,
		CaseType:         "cr",
		CaseTitle:        title,
		DateFiled:        dateFiled,
		JurisdictionType: "cr",
	}
}

// TestUpsertRecords_InsertsNew は新規レコードが挿入として集計されることを確認する
func TestUpsertRecords_InsertsNew(t *testing.T) {
	repo := newMockCaseRepo()
	engine := newTestEngine(repo)

	records := []model.CaseRecord{
		record("101", "3:24-cv-00123", "USA v. Smith", "2024-01-15"),
		record("102", "3:24-cv-00124", "USA v. Jones", "2024-01-16"),
	}
	result := engine.UpsertRecords(context.Background(), records)

	if result.Inserted != 2 {
		t.Errorf("Inserted: got %d, want 2", result.Inserted)
	}
	if result.Updated != 0 || result.Skipped != 0 || result.Failed != 0 {
		t.Errorf("集計: got %+v", result)
	}
	if len(repo.store) != 2 {
		t.Errorf("保存件数: got %d, want 2", len(repo.store))
	}
}

// TestUpsertRecords_Idempotent は同一結果の再適用で行数が増えないことを確認する
func TestUpsertRecords_Idempotent(t *testing.T) {
	repo := newMockCaseRepo()
	engine := newTestEngine(repo)

	records := []model.CaseRecord{
		record("101", "3:24-cv-00123", "USA v. Smith", "2024-01-15"),
		record("102", "3:24-cv-00124", "USA v. Jones", "2024-01-16"),
	}

	first := engine.UpsertRecords(context.Background(), records)
	if first.Inserted != 2 {
		t.Fatalf("1回目のInserted: got %d, want 2", first.Inserted)
	}

	second := engine.UpsertRecords(context.Background(), records)
	if second.Inserted != 0 {
		t.Errorf("2回目のInserted: got %d, want 0", second.Inserted)
	}
	if second.Updated != 2 {
		t.Errorf("2回目のUpdated: got %d, want 2", second.Updated)
	}
	if len(repo.store) != 2 {
		t.Errorf("保存件数: got %d, want 2", len(repo.store))
	}
}

// TestUpsertRecords_SkipsMissingCaseID はcaseIdの無いレコードがスキップされることを確認する
func TestUpsertRecords_SkipsMissingCaseID(t *testing.T) {
	repo := newMockCaseRepo()
	engine := newTestEngine(repo)

	records := []model.CaseRecord{
		record("", "3:24-cv-00123", "USA v. Smith", "2024-01-15"),
		record("102", "3:24-cv-00124", "USA v. Jones", "2024-01-16"),
	}
	result := engine.UpsertRecords(context.Background(), records)

	if result.Skipped != 1 {
		t.Errorf("Skipped: got %d, want 1", result.Skipped)
	}
	if result.Inserted != 1 {
		t.Errorf("Inserted: got %d, want 1", result.Inserted)
	}
	if len(repo.store) != 1 {
		t.Errorf("保存件数: got %d, want 1", len(repo.store))
	}
}

// TestUpsertRecords_DerivesLinks はcaseNumberから3つの参照URLが導出されることを確認する
func TestUpsertRecords_DerivesLinks(t *testing.T) {
	repo := newMockCaseRepo()
	engine := newTestEngine(repo)

	engine.UpsertRecords(context.Background(), []model.CaseRecord{
		record("101", "3:24-cv-00123", "USA v. Smith", "2024-01-15"),
	})

	stored := repo.store["101"]
	if stored == nil {
		t.Fatal("事件が保存されていない")
	}

	wantSummary := "https://ecf.casd.uscourts.gov/cgi-bin/qrySummary.pl?3:24-cv-00123"
	wantParties := "https://ecf.casd.uscourts.gov/cgi-bin/qryParties.pl?3:24-cv-00123"
	wantAttorney := "https://ecf.casd.uscourts.gov/cgi-bin/qryAttorneys.pl?3:24-cv-00123"

	if stored.CaseSummary == nil || *stored.CaseSummary != wantSummary {
		t.Errorf("CaseSummary: got %v, want %s", stored.CaseSummary, wantSummary)
	}
	if stored.Parties == nil || *stored.Parties != wantParties {
		t.Errorf("Parties: got %v, want %s", stored.Parties, wantParties)
	}
	if stored.Attorney == nil || *stored.Attorney != wantAttorney {
		t.Errorf("Attorney: got %v, want %s", stored.Attorney, wantAttorney)
	}
}

// TestUpsertRecords_NoLinksWithoutCaseNumber はcaseNumberが無い場合に
// 参照URLが1つも構築されないことを確認する
func TestUpsertRecords_NoLinksWithoutCaseNumber(t *testing.T) {
	repo := newMockCaseRepo()
	engine := newTestEngine(repo)

	engine.UpsertRecords(context.Background(), []model.CaseRecord{
		record("101", "", "USA v. Smith", "2024-01-15"),
	})

	stored := repo.store["101"]
	if stored == nil {
		t.Fatal("事件が保存されていない")
	}
	if stored.CaseSummary != nil || stored.Parties != nil || stored.Attorney != nil {
		t.Errorf("参照URLはすべてnilであるべき: summary=%v parties=%v attorney=%v",
			stored.CaseSummary, stored.Parties, stored.Attorney)
	}
}

// TestUpsertRecords_SanitizesTitle は事件タイトルのHTMLタグが除去されることを確認する
func TestUpsertRecords_SanitizesTitle(t *testing.T) {
	repo := newMockCaseRepo()
	engine := newTestEngine(repo)

	engine.UpsertRecords(context.Background(), []model.CaseRecord{
		record("101", "3:24-cv-00123", `USA v. <script>alert(1)</script>Smith`, "2024-01-15"),
	})

	stored := repo.store["101"]
	if stored == nil {
		t.Fatal("事件が保存されていない")
	}
	if stored.CaseTitle != "USA v. Smith" {
		t.Errorf("CaseTitle: got %q, want %q", stored.CaseTitle, "USA v. Smith")
	}
}

// TestUpsertRecords_ToleratesPartialInput は欠落フィールドのあるレコードが
// 捨てられずに保存されることを確認する
func TestUpsertRecords_ToleratesPartialInput(t *testing.T) {
	repo := newMockCaseRepo()
	engine := newTestEngine(repo)

	tests := []struct {
		name   string
		record model.CaseRecord
	}{
		{"日付なし", record("101", "3:24-cv-00123", "USA v. Smith", "")},
		{"不正な日付", record("102", "3:24-cv-00124", "USA v. Jones", "not-a-date")},
		{"タイトルなし", record("103", "3:24-cv-00125", "", "2024-01-15")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.UpsertRecords(context.Background(), []model.CaseRecord{tt.record})
			if result.Inserted != 1 {
				t.Errorf("Inserted: got %d, want 1", result.Inserted)
			}
		})
	}

	if repo.store["101"].DateFiled != nil {
		t.Error("日付なしレコードのDateFiledはnilであるべき")
	}
	if repo.store["102"].DateFiled != nil {
		t.Error("不正な日付のDateFiledはnilであるべき")
	}
}

// TestUpsertRecords_FailureIsolation は1件の書き込み失敗が他のレコードに
// 影響しないことを確認する
func TestUpsertRecords_FailureIsolation(t *testing.T) {
	repo := newMockCaseRepo()
	repo.failCaseIDs["102"] = true
	engine := newTestEngine(repo)

	records := []model.CaseRecord{
		record("101", "3:24-cv-00123", "USA v. Smith", "2024-01-15"),
		record("102", "3:24-cv-00124", "USA v. Jones", "2024-01-16"),
		record("103", "3:24-cv-00125", "USA v. Brown", "2024-01-17"),
	}
	result := engine.UpsertRecords(context.Background(), records)

	if result.Failed != 1 {
		t.Errorf("Failed: got %d, want 1", result.Failed)
	}
	if result.Inserted != 2 {
		t.Errorf("Inserted: got %d, want 2", result.Inserted)
	}
	if len(repo.store) != 2 {
		t.Errorf("保存件数: got %d, want 2", len(repo.store))
	}
}
