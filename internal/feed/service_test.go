package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/provendata/pacertrack/internal/model"
)

// mockCourtFeedRepo はCourtFeedRepositoryのモック実装
type mockCourtFeedRepo struct {
	feeds     map[string]*model.CourtFeed
	createErr error
	nextID    int
}

func newMockCourtFeedRepo() *mockCourtFeedRepo {
	return &mockCourtFeedRepo{feeds: make(map[string]*model.CourtFeed), nextID: 1}
}

func (m *mockCourtFeedRepo) List(ctx context.Context) ([]*model.CourtFeed, error) {
	feeds := make([]*model.CourtFeed, 0, len(m.feeds))
	for _, f := range m.feeds {
		feeds = append(feeds, f)
	}
	return feeds, nil
}

func (m *mockCourtFeedRepo) ListDue(ctx context.Context) ([]*model.CourtFeed, error) {
	return m.List(ctx)
}

func (m *mockCourtFeedRepo) Create(ctx context.Context, courtID, feedURL string) (*model.CourtFeed, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	feed := &model.CourtFeed{ID: m.nextID, CourtID: courtID, FeedURL: feedURL}
	m.nextID++
	m.feeds[courtID] = feed
	return feed, nil
}

func (m *mockCourtFeedRepo) Delete(ctx context.Context, id int) error {
	for courtID, f := range m.feeds {
		if f.ID == id {
			delete(m.feeds, courtID)
			return nil
		}
	}
	return model.NewFeedNotFoundError(id)
}

func (m *mockCourtFeedRepo) UpdateFetchState(ctx context.Context, feed *model.CourtFeed) error {
	return nil
}

// mockSSRFGuard はSSRFGuardServiceのモック実装
type mockSSRFGuard struct {
	validateErr error
}

func (m *mockSSRFGuard) NewSafeClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (m *mockSSRFGuard) ValidateURL(rawURL string) error {
	return m.validateErr
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestCreate_Success はフィード登録を確認する
func TestCreate_Success(t *testing.T) {
	repo := newMockCourtFeedRepo()
	svc := NewService(repo, &mockSSRFGuard{}, newTestLogger())

	feed, err := svc.Create(context.Background(), "casdc", "https://ecf.casd.uscourts.gov/cgi-bin/rss_outside.pl")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if feed.ID != 1 {
		t.Errorf("ID: got %d, want 1", feed.ID)
	}
	if feed.CourtID != "casdc" {
		t.Errorf("CourtID: got %s, want casdc", feed.CourtID)
	}
}

// TestCreate_UnsafeURL はSSRF検証に失敗したURLが拒否されることを確認する
func TestCreate_UnsafeURL(t *testing.T) {
	repo := newMockCourtFeedRepo()
	guard := &mockSSRFGuard{validateErr: errors.New("blocked IP address: 169.254.169.254")}
	svc := NewService(repo, guard, newTestLogger())

	_, err := svc.Create(context.Background(), "casdc", "http://169.254.169.254/feed.xml")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返るべき: %v", err)
	}
	if apiErr.Code != model.ErrCodeInvalidFeedURL {
		t.Errorf("エラーコード: got %s", apiErr.Code)
	}
	if len(repo.feeds) != 0 {
		t.Error("拒否されたフィードが保存されている")
	}
}

// TestCreate_EmptyCourtID は裁判所IDなしの登録が拒否されることを確認する
func TestCreate_EmptyCourtID(t *testing.T) {
	svc := NewService(newMockCourtFeedRepo(), &mockSSRFGuard{}, newTestLogger())

	_, err := svc.Create(context.Background(), "", "https://example.com/feed.xml")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返るべき: %v", err)
	}
	if apiErr.Code != model.ErrCodeInvalidFeedURL {
		t.Errorf("エラーコード: got %s", apiErr.Code)
	}
}

// TestDelete はフィード削除と存在しないIDのエラーを確認する
func TestDelete(t *testing.T) {
	repo := newMockCourtFeedRepo()
	svc := NewService(repo, &mockSSRFGuard{}, newTestLogger())

	feed, err := svc.Create(context.Background(), "casdc", "https://example.com/feed.xml")
	if err != nil {
		t.Fatalf("登録に失敗: %v", err)
	}

	if err := svc.Delete(context.Background(), feed.ID); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	err = svc.Delete(context.Background(), feed.ID)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返るべき: %v", err)
	}
	if apiErr.Code != model.ErrCodeFeedNotFound {
		t.Errorf("エラーコード: got %s", apiErr.Code)
	}
}
