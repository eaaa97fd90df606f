package usage

import (
	"sync"
	"testing"
	"time"

	"github.com/solacore/solve-api/internal/config"
	"github.com/solacore/solve-api/internal/model"
)

// mockUsageStore 订阅创建语义与真实实现一致：
// user_id 冲突时 DO NOTHING，先到者胜出
type mockUsageStore struct {
	mu   sync.Mutex
	subs map[string]*model.Subscription
}

func newMockUsageStore() *mockUsageStore {
	return &mockUsageStore{subs: make(map[string]*model.Subscription)}
}

func (m *mockUsageStore) GetOrCreate(userID string, periodStart time.Time) (*model.Usage, error) {
	return &model.Usage{UserID: userID, PeriodStart: periodStart}, nil
}

func (m *mockUsageStore) GetSubscriptionByUserID(userID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subs[userID]; ok {
		return sub, nil
	}
	return nil, nil
}

func (m *mockUsageStore) CreateSubscription(sub *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[sub.UserID]; ok {
		return nil
	}
	m.subs[sub.UserID] = sub
	return nil
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 8, 20, 15, 30, 0, 0, time.UTC)
	created := time.Date(2026, 8, 7, 9, 45, 12, 0, time.UTC)
	periodStart := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sub  *model.Subscription
		want time.Time
	}{
		{
			name: "free tier anchors to creation day",
			sub:  &model.Subscription{Tier: model.TierFree, CreatedAt: created},
			want: time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "free tier without creation time falls back to now",
			sub:  &model.Subscription{Tier: model.TierFree},
			want: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "paid tier uses current period start",
			sub:  &model.Subscription{Tier: model.TierPro, CurrentPeriodStart: &periodStart},
			want: periodStart,
		},
		{
			name: "paid tier without period falls back to first of month",
			sub:  &model.Subscription{Tier: model.TierStandard, CreatedAt: created},
			want: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodStart(tt.sub, now); !got.Equal(tt.want) {
				t.Errorf("PeriodStart() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnsureSubscriptionConcurrentFirstRequests(t *testing.T) {
	store := newMockUsageStore()
	svc := NewService(store, &config.QuotaConfig{Free: 10, Standard: 100, Pro: 0})

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan *model.Subscription, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub, err := svc.EnsureSubscription("user-1")
			if err != nil {
				t.Errorf("EnsureSubscription failed: %v", err)
				return
			}
			results <- sub
		}()
	}
	wg.Wait()
	close(results)

	var firstID string
	for sub := range results {
		if sub.Tier != model.TierFree {
			t.Errorf("Tier = %s, want free", sub.Tier)
		}
		if firstID == "" {
			firstID = sub.ID
		} else if sub.ID != firstID {
			t.Errorf("concurrent first requests resolved to different subscriptions: %s vs %s", sub.ID, firstID)
		}
	}
}

func TestLimitForTier(t *testing.T) {
	svc := NewService(nil, &config.QuotaConfig{Free: 10, Standard: 100, Pro: 0})

	tests := []struct {
		tier string
		want int
	}{
		{model.TierFree, 10},
		{model.TierStandard, 100},
		{model.TierPro, 0},
		{"unknown", 10},
	}

	for _, tt := range tests {
		if got := svc.LimitForTier(tt.tier); got != tt.want {
			t.Errorf("LimitForTier(%s) = %d, want %d", tt.tier, got, tt.want)
		}
	}
}
