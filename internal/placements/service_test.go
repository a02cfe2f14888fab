package placements

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"pujasetu/internal/notifications"
	"pujasetu/pkg/logger"
)

type fakeRepo struct {
	mu         sync.Mutex
	placements map[uuid.UUID]*PremiumPlacement

	// runs after ListExpired returns its snapshot, letting tests interleave
	// a concurrent write between the sweep's read and its save
	afterListExpired func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{placements: make(map[uuid.UUID]*PremiumPlacement)}
}

func (f *fakeRepo) Create(ctx context.Context, placement *PremiumPlacement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if placement.ID == uuid.Nil {
		placement.ID = uuid.New()
	}
	if placement.Version == 0 {
		placement.Version = 1
	}
	copied := *placement
	f.placements[placement.ID] = &copied
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*PremiumPlacement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.placements[id]
	if !ok {
		return nil, errors.New("placement not found")
	}
	copied := *p
	return &copied, nil
}

func (f *fakeRepo) GetActiveByPriestID(ctx context.Context, priestID uuid.UUID) (*PremiumPlacement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *PremiumPlacement
	for _, p := range f.placements {
		if p.PriestID == priestID && p.Status == StatusActive {
			if latest == nil || p.ExpiresAt.After(latest.ExpiresAt) {
				latest = p
			}
		}
	}
	if latest == nil {
		return nil, errors.New("no active placement")
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]PremiumPlacement, error) {
	f.mu.Lock()
	var due []PremiumPlacement
	for _, p := range f.placements {
		if p.Status == StatusActive && !p.ExpiresAt.After(now) {
			due = append(due, *p)
		}
		if len(due) == limit {
			break
		}
	}
	f.mu.Unlock()
	if f.afterListExpired != nil {
		f.afterListExpired()
	}
	return due, nil
}

func (f *fakeRepo) ListDueForReminder(ctx context.Context, now time.Time, window time.Duration, limit int) ([]PremiumPlacement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []PremiumPlacement
	for _, p := range f.placements {
		if p.Status == StatusActive && p.ReminderSentAt == nil &&
			p.ExpiresAt.After(now) && !p.ExpiresAt.After(now.Add(window)) {
			due = append(due, *p)
		}
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (f *fakeRepo) SaveWithVersion(ctx context.Context, placement *PremiumPlacement, readVersion int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.placements[placement.ID]
	if !ok {
		return errors.New("placement not found")
	}
	if stored.Version != readVersion {
		return ErrConcurrentModification
	}
	placement.Version = readVersion + 1
	copied := *placement
	f.placements[placement.ID] = &copied
	return nil
}

type countingSender struct {
	mu   sync.Mutex
	sent []*notifications.Notification
}

func (c *countingSender) Send(ctx context.Context, n *notifications.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return nil
}

func (c *countingSender) Close() error { return nil }

func (c *countingSender) countOf(t notifications.Type) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, msg := range c.sent {
		if msg.Type == t {
			n++
		}
	}
	return n
}

func newTestService() (Service, *fakeRepo, *countingSender) {
	repo := newFakeRepo()
	sender := &countingSender{}
	return NewService(repo, sender, logger.New()), repo, sender
}

func seedPlacement(repo *fakeRepo, priestID uuid.UUID, expiresAt time.Time) *PremiumPlacement {
	placement := &PremiumPlacement{
		ID:           uuid.New(),
		PriestID:     priestID,
		Status:       StatusActive,
		RankingDelta: DefaultRankingDelta,
		BoostApplied: true,
		StartsAt:     expiresAt.AddDate(0, -1, 0),
		ExpiresAt:    expiresAt,
		Version:      1,
	}
	repo.Create(context.Background(), placement)
	return placement
}

func TestExtendPlacement_CreatesWhenNoneActive(t *testing.T) {
	svc, _, _ := newTestService()
	priestID := uuid.New()

	placement, err := svc.ExtendPlacement(context.Background(), priestID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if placement.Status != StatusActive {
		t.Errorf("status = %s, want active", placement.Status)
	}
	if !placement.BoostApplied {
		t.Error("a fresh placement must apply the ranking boost")
	}
	wantExpiry := time.Now().AddDate(0, 3, 0)
	if diff := placement.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expires at %v, want about %v", placement.ExpiresAt, wantExpiry)
	}
}

func TestExtendPlacement_ExtendsFromCurrentExpiry(t *testing.T) {
	svc, repo, _ := newTestService()
	priestID := uuid.New()
	expiry := time.Now().Add(10 * 24 * time.Hour)
	seedPlacement(repo, priestID, expiry)

	placement, err := svc.ExtendPlacement(context.Background(), priestID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := expiry.AddDate(0, 1, 0)
	if !placement.ExpiresAt.Equal(want) {
		t.Errorf("expires at %v, want current expiry + 1 month = %v", placement.ExpiresAt, want)
	}
}

func TestExtendPlacement_NeverExtendsFromThePast(t *testing.T) {
	svc, repo, _ := newTestService()
	priestID := uuid.New()
	// Still status=active but past expiry: the sweep has not run yet.
	seedPlacement(repo, priestID, time.Now().Add(-48*time.Hour))

	placement, err := svc.ExtendPlacement(context.Background(), priestID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantAtLeast := time.Now().AddDate(0, 1, 0).Add(-time.Minute)
	if placement.ExpiresAt.Before(wantAtLeast) {
		t.Errorf("expires at %v; extending from a past expiry must not shorten the paid period", placement.ExpiresAt)
	}
}

func TestExtendPlacement_NoDoubleBoost(t *testing.T) {
	svc, repo, _ := newTestService()
	priestID := uuid.New()
	seedPlacement(repo, priestID, time.Now().Add(10*24*time.Hour))

	placement, err := svc.ExtendPlacement(context.Background(), priestID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !placement.BoostApplied {
		t.Error("boost must remain applied across renewal")
	}
	if placement.RankingDelta != DefaultRankingDelta {
		t.Errorf("ranking delta = %d, want unchanged %d (no stacking on renewal)", placement.RankingDelta, DefaultRankingDelta)
	}
}

func TestExtendPlacement_RejectsInvalidMonths(t *testing.T) {
	svc, _, _ := newTestService()
	for _, months := range []int{0, -1, 13} {
		if _, err := svc.ExtendPlacement(context.Background(), uuid.New(), months); err == nil {
			t.Errorf("months=%d: expected error", months)
		}
	}
}

func TestExpireDue_ExpiresOnceEvenWhenRunTwice(t *testing.T) {
	svc, repo, sender := newTestService()
	priestID := uuid.New()
	placement := seedPlacement(repo, priestID, time.Now().Add(-24*time.Hour))
	now := time.Now()

	expired, err := svc.ExpireDue(context.Background(), now, 100)
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if expired != 1 {
		t.Fatalf("first sweep expired %d, want 1", expired)
	}

	expired, err = svc.ExpireDue(context.Background(), now, 100)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if expired != 0 {
		t.Errorf("second sweep expired %d, want 0 (idempotent)", expired)
	}

	stored, _ := repo.GetByID(context.Background(), placement.ID)
	if stored.Status != StatusExpired {
		t.Errorf("status = %s, want expired", stored.Status)
	}
	if stored.BoostApplied {
		t.Error("ranking boost must be reversed on expiry")
	}
	if got := sender.countOf(notifications.TypePlacementExpired); got != 1 {
		t.Errorf("expiry notified %d times, want exactly 1", got)
	}
}

func TestExpireDue_SkipsRecordExpiredByAnotherInstance(t *testing.T) {
	svc, repo, sender := newTestService()
	placement := seedPlacement(repo, uuid.New(), time.Now().Add(-time.Hour))

	// Another instance expires the record between this sweep's read and
	// its versioned write.
	repo.afterListExpired = func() {
		repo.afterListExpired = nil
		repo.mu.Lock()
		stored := repo.placements[placement.ID]
		stored.Version++
		stored.Status = StatusExpired
		stored.BoostApplied = false
		repo.mu.Unlock()
	}

	expired, err := svc.ExpireDue(context.Background(), time.Now(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 0 {
		t.Errorf("expired %d, want 0 when the version check fails", expired)
	}
	if got := sender.countOf(notifications.TypePlacementExpired); got != 0 {
		t.Errorf("sent %d expiry notifications, want 0 for the losing sweep", got)
	}
}

func TestSendReminders_OnePerPlacement(t *testing.T) {
	svc, repo, sender := newTestService()
	priestID := uuid.New()
	seedPlacement(repo, priestID, time.Now().Add(48*time.Hour))
	now := time.Now()
	window := 72 * time.Hour

	sent, err := svc.SendReminders(context.Background(), now, window, 100)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if sent != 1 {
		t.Fatalf("first pass sent %d, want 1", sent)
	}

	sent, err = svc.SendReminders(context.Background(), now, window, 100)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if sent != 0 {
		t.Errorf("second pass sent %d, want 0 (already reminded)", sent)
	}
	if got := sender.countOf(notifications.TypePlacementExpiring); got != 1 {
		t.Errorf("reminder notified %d times, want exactly 1", got)
	}
}

func TestSendReminders_OutsideWindowNotReminded(t *testing.T) {
	svc, repo, _ := newTestService()
	seedPlacement(repo, uuid.New(), time.Now().Add(30*24*time.Hour))

	sent, err := svc.SendReminders(context.Background(), time.Now(), 72*time.Hour, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 0 {
		t.Errorf("sent %d, want 0 for a placement expiring well past the window", sent)
	}
}

func TestExtendPlacement_ClearsReminderFlag(t *testing.T) {
	svc, repo, _ := newTestService()
	priestID := uuid.New()
	placement := seedPlacement(repo, priestID, time.Now().Add(48*time.Hour))

	remindedAt := time.Now()
	repo.mu.Lock()
	repo.placements[placement.ID].ReminderSentAt = &remindedAt
	repo.mu.Unlock()

	extended, err := svc.ExtendPlacement(context.Background(), priestID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if extended.ReminderSentAt != nil {
		t.Error("renewal must clear the reminder flag for the new period")
	}
}
