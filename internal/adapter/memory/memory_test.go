package memory

import (
	"context"
	"testing"
	"time"

	"healthdash/internal/domain"
)

func TestSampleRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	userID := int64(1)

	base := time.Date(2026, time.February, 9, 8, 0, 0, 0, time.UTC)
	id, err := db.AddSample(ctx, userID, domain.MetricWeight, 80.0, "kg", base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("AddSample: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero ID")
	}
	_, _ = db.AddSample(ctx, userID, domain.MetricWeight, 81.0, "kg", base)
	_, _ = db.AddSample(ctx, userID, domain.MetricSteps, 5000, "count", base)

	// Range query is ascending and kind-scoped
	got, err := db.ListSamples(ctx, userID, domain.MetricWeight, base, base.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("ListSamples: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	if got[0].Value != 81.0 || got[1].Value != 80.0 {
		t.Errorf("expected ascending order, got %v", got)
	}

	// Upper bound is exclusive
	got, _ = db.ListSamples(ctx, userID, domain.MetricWeight, base, base.Add(24*time.Hour))
	if len(got) != 1 {
		t.Errorf("expected 1 sample before upper bound, got %d", len(got))
	}

	// Other user sees nothing
	other, _ := db.ListRecentSamples(ctx, 999, domain.MetricWeight, 10)
	if len(other) != 0 {
		t.Error("expected 0 samples for other user")
	}

	// Recent is newest first
	recent, err := db.ListRecentSamples(ctx, userID, domain.MetricWeight, 10)
	if err != nil {
		t.Fatalf("ListRecentSamples: %v", err)
	}
	if len(recent) != 2 || recent[0].Value != 80.0 {
		t.Errorf("expected newest first, got %v", recent)
	}

	// Delete latest removes the newest weight only
	ok, err := db.DeleteLatestSample(ctx, userID, domain.MetricWeight)
	if err != nil {
		t.Fatalf("DeleteLatestSample: %v", err)
	}
	if !ok {
		t.Error("expected true")
	}
	recent, _ = db.ListRecentSamples(ctx, userID, domain.MetricWeight, 10)
	if len(recent) != 1 || recent[0].Value != 81.0 {
		t.Errorf("expected the older weight to remain, got %v", recent)
	}
	steps, _ := db.ListRecentSamples(ctx, userID, domain.MetricSteps, 10)
	if len(steps) != 1 {
		t.Error("expected steps untouched")
	}

	_, _ = db.DeleteLatestSample(ctx, userID, domain.MetricWeight)
	ok, _ = db.DeleteLatestSample(ctx, userID, domain.MetricWeight)
	if ok {
		t.Error("expected false on empty series")
	}
}

func TestAccessRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	g, err := db.GetGrant(ctx, 1)
	if err != nil {
		t.Fatalf("GetGrant: %v", err)
	}
	if g != nil {
		t.Error("expected nil grant before answering")
	}

	if err := db.SaveGrant(ctx, 1, true, false); err != nil {
		t.Fatalf("SaveGrant: %v", err)
	}
	g, _ = db.GetGrant(ctx, 1)
	if g == nil || !g.Read || g.Share {
		t.Errorf("unexpected grant: %+v", g)
	}

	_ = db.SaveGrant(ctx, 1, true, true)
	g, _ = db.GetGrant(ctx, 1)
	if !g.Share {
		t.Error("expected share after second answer")
	}
}

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.Create(ctx, "bob", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Username != "bob" {
		t.Errorf("expected bob, got %s", u.Username)
	}

	u2, err := db.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u2 == nil || u2.ID != u.ID {
		t.Error("failed to retrieve user")
	}

	if _, err := db.Create(ctx, "bob", ""); err == nil {
		t.Error("expected duplicate username error")
	}

	count, _ := db.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	repo := db.NewSessionRepo()
	ctx := context.Background()

	err := repo.Create(ctx, 1, "token123", "firefox", "10.0.0.1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = repo.Create(ctx, 1, "stale", "firefox", "10.0.0.1", time.Now().Add(-time.Hour))

	sess, err := repo.GetByToken(ctx, "token123")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if sess == nil || sess.UserAgent != "firefox" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	n, _ := repo.DeleteExpired(ctx)
	if n != 1 {
		t.Errorf("expected 1 expired session purged, got %d", n)
	}

	_ = repo.Delete(ctx, "token123")
	sess, _ = repo.GetByToken(ctx, "token123")
	if sess != nil {
		t.Error("expected nil (deleted)")
	}
}
