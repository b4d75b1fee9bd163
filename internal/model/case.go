// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"time"
)

// CaseRecord はPCL（PACER Case Locator）APIから受信した事件レコードを表す。
// caseIdは数値・文字列のどちらでも届くためjson.Numberで受ける。
// caseIdを持たないレコードは照合不能のためUPSERT時にスキップされる。
type CaseRecord struct {
	CaseID           json.Number `json:"caseId"`
	CourtID          string      `json:"courtId"`
	CaseNumber       string      `json:"caseNumber"`
	CaseType         string      `json:"caseType"`
	CaseTitle        string      `json:"caseTitle"`
	DateFiled        string      `json:"dateFiled"` // "2006-01-02" 形式
	JurisdictionType string      `json:"jurisdictionType"`
	CaseLink         string      `json:"caseLink"`
}

// PacerCase はローカルに永続化された事件行を表す。
// case_idが一意キーであり、再取得時は可変フィールドをすべて上書きする。
// CaseSummary・Parties・AttorneyはcaseNumberから導出される参照URLで、
// caseNumberが無い場合は3つともnilになる（部分的な構築は行わない）。
type PacerCase struct {
	CaseID           string
	CourtID          string
	CaseNumber       string
	CaseType         string
	CaseTitle        string
	DateFiled        *time.Time
	JurisdictionType string
	CaseLink         string
	CaseSummary      *string
	Parties          *string
	Attorney         *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SearchQuery はPCLの事件検索フィルタを表す。
// DateFromは必須、DateToとCourtIDは任意。
// 管轄種別は刑事（"cr"）、事件状態はオープン（"O"）に固定される。
type SearchQuery struct {
	DateFrom string // dateFiledFrom（必須）
	DateTo   string // dateFiledTo（任意、空なら送信しない）
	CourtID  string // 空ならスコープなし検索
}
