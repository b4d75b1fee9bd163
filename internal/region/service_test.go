package region

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/provendata/pacertrack/internal/model"
)

// mockRegionRepo はRegionRepositoryのモック実装
type mockRegionRepo struct {
	listFunc   func(ctx context.Context) ([]*model.Region, error)
	createFunc func(ctx context.Context, regionName string) (*model.Region, error)
	updateFunc func(ctx context.Context, id int, regionName string) error
	deleteFunc func(ctx context.Context, id int) error
}

func (m *mockRegionRepo) List(ctx context.Context) ([]*model.Region, error) {
	return m.listFunc(ctx)
}

func (m *mockRegionRepo) Create(ctx context.Context, regionName string) (*model.Region, error) {
	return m.createFunc(ctx, regionName)
}

func (m *mockRegionRepo) Update(ctx context.Context, id int, regionName string) error {
	return m.updateFunc(ctx, id, regionName)
}

func (m *mockRegionRepo) Delete(ctx context.Context, id int) error {
	return m.deleteFunc(ctx, id)
}

// mockCourtCodeRepo はCourtCodeRepositoryのモック実装
type mockCourtCodeRepo struct {
	courtIDByRegionFunc func(ctx context.Context, regionName string) (string, error)
	countByRegionFunc   func(ctx context.Context, regionName string) (int, error)
	callCount           int
}

func (m *mockCourtCodeRepo) CourtIDByRegion(ctx context.Context, regionName string) (string, error) {
	m.callCount++
	return m.courtIDByRegionFunc(ctx, regionName)
}

func (m *mockCourtCodeRepo) CountByRegion(ctx context.Context, regionName string) (int, error) {
	return m.countByRegionFunc(ctx, regionName)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestCreate_Success は対応済み地域の登録が成功することを確認する
func TestCreate_Success(t *testing.T) {
	regionRepo := &mockRegionRepo{
		createFunc: func(ctx context.Context, regionName string) (*model.Region, error) {
			return &model.Region{ID: 1, RegionName: regionName}, nil
		},
	}
	courtRepo := &mockCourtCodeRepo{
		countByRegionFunc: func(ctx context.Context, regionName string) (int, error) {
			return 1, nil
		},
	}
	svc := NewService(regionRepo, courtRepo, newTestLogger(), time.Minute)

	region, err := svc.Create(context.Background(), "California Southern")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if region.ID != 1 {
		t.Errorf("ID: got %d, want 1", region.ID)
	}
	if region.RegionName != "California Southern" {
		t.Errorf("RegionName: got %s", region.RegionName)
	}
}

// TestCreate_NotSupported はマッピングにない地域名の登録が拒否されることを確認する
func TestCreate_NotSupported(t *testing.T) {
	regionRepo := &mockRegionRepo{
		createFunc: func(ctx context.Context, regionName string) (*model.Region, error) {
			t.Fatal("未対応地域でCreateが呼ばれてはいけない")
			return nil, nil
		},
	}
	courtRepo := &mockCourtCodeRepo{
		countByRegionFunc: func(ctx context.Context, regionName string) (int, error) {
			return 0, nil
		},
	}
	svc := NewService(regionRepo, courtRepo, newTestLogger(), time.Minute)

	_, err := svc.Create(context.Background(), "Atlantis District")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返るべき: %v", err)
	}
	if apiErr.Code != model.ErrCodeRegionNotSupported {
		t.Errorf("エラーコード: got %s, want %s", apiErr.Code, model.ErrCodeRegionNotSupported)
	}
}

// TestCreate_EmptyName は空の地域名が拒否されることを確認する
func TestCreate_EmptyName(t *testing.T) {
	svc := NewService(&mockRegionRepo{}, &mockCourtCodeRepo{}, newTestLogger(), time.Minute)

	_, err := svc.Create(context.Background(), "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返るべき: %v", err)
	}
	if apiErr.Code != model.ErrCodeRegionNotSupported {
		t.Errorf("エラーコード: got %s", apiErr.Code)
	}
}

// TestResolveCourtID_All は"All"がフィルタなし（空の裁判所ID）に解決されることを確認する
func TestResolveCourtID_All(t *testing.T) {
	courtRepo := &mockCourtCodeRepo{
		courtIDByRegionFunc: func(ctx context.Context, regionName string) (string, error) {
			t.Fatal("Allの場合はリポジトリを呼び出してはいけない")
			return "", nil
		},
	}
	svc := NewService(&mockRegionRepo{}, courtRepo, newTestLogger(), time.Minute)

	for _, name := range []string{"All", ""} {
		courtID, err := svc.ResolveCourtID(context.Background(), name)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if courtID != "" {
			t.Errorf("ResolveCourtID(%q): got %s, want 空文字列", name, courtID)
		}
	}
}

// TestResolveCourtID_Found は地域名が裁判所IDに解決されることを確認する
func TestResolveCourtID_Found(t *testing.T) {
	courtRepo := &mockCourtCodeRepo{
		courtIDByRegionFunc: func(ctx context.Context, regionName string) (string, error) {
			return "casdc", nil
		},
	}
	svc := NewService(&mockRegionRepo{}, courtRepo, newTestLogger(), time.Minute)

	courtID, err := svc.ResolveCourtID(context.Background(), "California Southern")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if courtID != "casdc" {
		t.Errorf("裁判所ID: got %s, want casdc", courtID)
	}
}

// TestResolveCourtID_Unknown は未知の地域名がエラーにならず空解決されることを確認する
func TestResolveCourtID_Unknown(t *testing.T) {
	courtRepo := &mockCourtCodeRepo{
		courtIDByRegionFunc: func(ctx context.Context, regionName string) (string, error) {
			return "", nil
		},
	}
	svc := NewService(&mockRegionRepo{}, courtRepo, newTestLogger(), time.Minute)

	courtID, err := svc.ResolveCourtID(context.Background(), "Atlantis District")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if courtID != "" {
		t.Errorf("裁判所ID: got %s, want 空文字列", courtID)
	}
}

// TestResolveCourtID_Cached は2回目の解決がキャッシュから返されることを確認する
func TestResolveCourtID_Cached(t *testing.T) {
	courtRepo := &mockCourtCodeRepo{
		courtIDByRegionFunc: func(ctx context.Context, regionName string) (string, error) {
			return "nysdc", nil
		},
	}
	svc := NewService(&mockRegionRepo{}, courtRepo, newTestLogger(), time.Minute)

	for i := 0; i < 3; i++ {
		courtID, err := svc.ResolveCourtID(context.Background(), "New York Southern")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if courtID != "nysdc" {
			t.Errorf("裁判所ID: got %s, want nysdc", courtID)
		}
	}
	if courtRepo.callCount != 1 {
		t.Errorf("リポジトリ呼び出し回数: got %d, want 1", courtRepo.callCount)
	}
}
