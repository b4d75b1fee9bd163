// Package model はドメインモデルを定義する。
package model

import "time"

// Region は検索スコープとして選択できる裁判所リージョンを表す。
// region_nameが一意で、court_ids参照テーブルに対応行が存在する場合のみ有効。
type Region struct {
	ID         int
	RegionName string
}

// RegionAll はスコープなし検索を意味するリージョン名のセンチネル値。
const RegionAll = "All"

// CourtFeed は裁判所ごとのCM/ECF RSSフィードの取得設定と状態を表す。
type CourtFeed struct {
	ID            int
	CourtID       string
	FeedURL       string
	ETag          string
	LastModified  string
	LastFetchedAt *time.Time
}

// Filing はRSSフィードから取り込んだ事件提出イベントを表す。
// (court_id, entry_guid)の組で重複登録を防止する。
type Filing struct {
	ID          string
	CourtID     string
	EntryGUID   string
	CaseNumber  string
	Title       string
	Link        string
	PublishedAt *time.Time
	FetchedAt   time.Time
}
