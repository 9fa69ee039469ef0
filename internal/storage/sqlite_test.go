package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/spectraops/spectraops/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := NewSQLiteStorage(dbPath, 1)

	if err := store.Open(); err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return store
}

func createTestUser(t *testing.T, store *SQLiteStorage, email string) *models.User {
	t.Helper()

	user := models.NewUser(email, "$2a$12$fakehash")
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestProject(t *testing.T, store *SQLiteStorage, name, userID string) *models.Project {
	t.Helper()

	project := models.NewProject(name, userID)
	if err := store.Projects().Create(context.Background(), project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func TestUserCreateAndGet(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "dev@example.com")

	got, err := store.Users().GetByEmail(ctx, "dev@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("got %+v, want user %s", got, user.ID)
	}

	byID, err := store.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID == nil || byID.Email != "dev@example.com" {
		t.Fatalf("got %+v", byID)
	}

	missing, err := store.Users().GetByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("missing user should be nil, not error")
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	createTestUser(t, store, "dup@example.com")

	err := store.Users().Create(ctx, models.NewUser("dup@example.com", "hash"))
	if err == nil {
		t.Error("duplicate email should fail the unique constraint")
	}
}

func TestUserList(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	createTestUser(t, store, "first@example.com")
	createTestUser(t, store, "second@example.com")

	users, err := store.Users().List(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}
	for _, u := range users {
		if u.PasswordHash == "" {
			t.Error("list should include the stored hash for admin tooling")
		}
	}
}

func TestUserUpdatePassword(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "dev@example.com")

	if err := store.Users().UpdatePassword(ctx, user.ID, "$2a$12$newhash"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	got, err := store.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.PasswordHash != "$2a$12$newhash" {
		t.Errorf("hash = %q, want updated value", got.PasswordHash)
	}

	if err := store.Users().UpdatePassword(ctx, "no-such-user", "hash"); err == nil {
		t.Error("updating an unknown user should fail")
	}
}

func TestProjectAPIKeyLookup(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "owner@example.com")
	project := createTestProject(t, store, "frontend", user.ID)

	got, err := store.Projects().GetByAPIKey(ctx, project.APIKey)
	if err != nil {
		t.Fatalf("get by api key: %v", err)
	}
	if got == nil || got.ID != project.ID {
		t.Fatalf("got %+v, want project %s", got, project.ID)
	}

	miss, err := store.Projects().GetByAPIKey(ctx, "no-such-key")
	if err != nil {
		t.Fatalf("miss lookup: %v", err)
	}
	if miss != nil {
		t.Error("unknown key should return nil without error")
	}
}

func TestProjectRotateKey(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	owner := createTestUser(t, store, "owner@example.com")
	stranger := createTestUser(t, store, "stranger@example.com")
	project := createTestProject(t, store, "frontend", owner.ID)
	oldKey := project.APIKey

	// Non-owner rotation affects zero rows
	rotated, err := store.Projects().RotateKey(ctx, project.ID, stranger.ID)
	if err != nil {
		t.Fatalf("rotate as stranger: %v", err)
	}
	if rotated != nil {
		t.Fatal("non-owner should not rotate the key")
	}

	// Owner rotation swaps the key atomically
	rotated, err = store.Projects().RotateKey(ctx, project.ID, owner.ID)
	if err != nil {
		t.Fatalf("rotate as owner: %v", err)
	}
	if rotated == nil || rotated.APIKey == oldKey {
		t.Fatalf("key was not rotated: %+v", rotated)
	}

	// Old key is invalidated
	miss, err := store.Projects().GetByAPIKey(ctx, oldKey)
	if err != nil {
		t.Fatalf("lookup old key: %v", err)
	}
	if miss != nil {
		t.Error("old key should no longer resolve")
	}
}

func TestProjectDeleteOwnedCascades(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	owner := createTestUser(t, store, "owner@example.com")
	stranger := createTestUser(t, store, "stranger@example.com")
	project := createTestProject(t, store, "frontend", owner.ID)

	err := store.Events().Insert(ctx, &models.ErrorEvent{
		ProjectID:   project.ID,
		Message:     "boom",
		Environment: models.EnvProduction,
		Severity:    models.SeverityError,
	})
	if err != nil {
		t.Fatalf("insert event: %v", err)
	}

	// Non-owner delete affects zero rows
	deleted, err := store.Projects().DeleteOwned(ctx, project.ID, stranger.ID)
	if err != nil {
		t.Fatalf("delete as stranger: %v", err)
	}
	if deleted {
		t.Fatal("non-owner should not delete the project")
	}

	deleted, err = store.Projects().DeleteOwned(ctx, project.ID, owner.ID)
	if err != nil {
		t.Fatalf("delete as owner: %v", err)
	}
	if !deleted {
		t.Fatal("owner delete should succeed")
	}

	// Cascade removed the project's events
	_, total, err := store.Events().ListByProject(ctx, project.ID, 10, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if total != 0 {
		t.Errorf("events after cascade delete = %d, want 0", total)
	}
}

func TestSessionGetValid(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "dev@example.com")

	sess, err := models.NewSession(user.ID, time.Hour)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := store.Sessions().Create(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	gotSess, gotUser, err := store.Sessions().GetValid(ctx, sess.Token)
	if err != nil {
		t.Fatalf("get valid: %v", err)
	}
	if gotSess == nil || gotUser == nil {
		t.Fatal("valid session should resolve")
	}
	if gotUser.Email != "dev@example.com" {
		t.Errorf("joined user email = %q", gotUser.Email)
	}

	// Unknown token
	s, u, err := store.Sessions().GetValid(ctx, "no-such-token")
	if err != nil || s != nil || u != nil {
		t.Errorf("unknown token should return nils without error, got %v %v %v", s, u, err)
	}
}

func TestSessionDeleteForUser(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "dev@example.com")
	other := createTestUser(t, store, "other@example.com")

	mine, err := models.NewSession(user.ID, time.Hour)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	theirs, err := models.NewSession(other.ID, time.Hour)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	for _, s := range []*models.Session{mine, theirs} {
		if err := store.Sessions().Create(ctx, s); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}

	if err := store.Sessions().DeleteForUser(ctx, user.ID); err != nil {
		t.Fatalf("delete for user: %v", err)
	}

	s, _, err := store.Sessions().GetValid(ctx, mine.Token)
	if err != nil || s != nil {
		t.Errorf("revoked session should not resolve, got %v %v", s, err)
	}
	s, _, err = store.Sessions().GetValid(ctx, theirs.Token)
	if err != nil || s == nil {
		t.Errorf("other user's session should survive, got %v %v", s, err)
	}
}

func TestSessionExpiredNotReturned(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "dev@example.com")

	expired := &models.Session{
		Token:     "expired-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt: time.Now().Add(-time.Hour),
	}
	if err := store.Sessions().Create(ctx, expired); err != nil {
		t.Fatalf("create session: %v", err)
	}

	s, u, err := store.Sessions().GetValid(ctx, "expired-token")
	if err != nil {
		t.Fatalf("get valid: %v", err)
	}
	if s != nil || u != nil {
		t.Error("expired session should not resolve")
	}

	pruned, err := store.Sessions().DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
}

func TestEventInsertBatchAtomic(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "dev@example.com")
	project := createTestProject(t, store, "frontend", user.ID)

	// Second event violates the severity CHECK constraint mid-transaction.
	events := []*models.ErrorEvent{
		{ProjectID: project.ID, Message: "ok", Environment: models.EnvProduction, Severity: models.SeverityError},
		{ProjectID: project.ID, Message: "bad", Environment: models.EnvProduction, Severity: "catastrophic"},
		{ProjectID: project.ID, Message: "never reached", Environment: models.EnvProduction, Severity: models.SeverityInfo},
	}

	if err := store.Events().InsertBatch(ctx, events); err == nil {
		t.Fatal("batch with constraint violation should fail")
	}

	_, total, err := store.Events().ListByProject(ctx, project.ID, 10, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if total != 0 {
		t.Errorf("rows after rolled-back batch = %d, want 0", total)
	}
}

func TestEventListByProjectPagination(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "dev@example.com")
	project := createTestProject(t, store, "frontend", user.ID)

	base := time.Now().Add(-time.Hour)
	var batch []*models.ErrorEvent
	for i := 0; i < 5; i++ {
		batch = append(batch, &models.ErrorEvent{
			ProjectID:   project.ID,
			Message:     fmt.Sprintf("event %d", i),
			Environment: models.EnvProduction,
			Severity:    models.SeverityError,
			ReceivedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}
	if err := store.Events().InsertBatch(ctx, batch); err != nil {
		t.Fatalf("insert batch: %v", err)
	}

	page, total, err := store.Events().ListByProject(ctx, project.ID, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Fatalf("page length = %d, want 2", len(page))
	}
	// Newest first
	if page[0].Message != "event 4" || page[1].Message != "event 3" {
		t.Errorf("unexpected order: %q, %q", page[0].Message, page[1].Message)
	}

	// Offset past the end returns an empty page, not an error
	empty, _, err := store.Events().ListByProject(ctx, project.ID, 2, 100)
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("page past end should be empty, got %d", len(empty))
	}
}

func TestEventListByOwnerSpansProjects(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	owner := createTestUser(t, store, "owner@example.com")
	other := createTestUser(t, store, "other@example.com")

	p1 := createTestProject(t, store, "frontend", owner.ID)
	p2 := createTestProject(t, store, "backend", owner.ID)
	p3 := createTestProject(t, store, "theirs", other.ID)

	for _, pid := range []string{p1.ID, p2.ID, p3.ID} {
		err := store.Events().Insert(ctx, &models.ErrorEvent{
			ProjectID:   pid,
			Message:     "boom",
			Environment: models.EnvProduction,
			Severity:    models.SeverityError,
		})
		if err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}

	events, total, err := store.Events().ListByOwner(ctx, owner.ID, 10, 0)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if total != 2 || len(events) != 2 {
		t.Errorf("owner sees %d/%d events, want 2/2", len(events), total)
	}
	for _, e := range events {
		if e.ProjectID == p3.ID {
			t.Error("owner should not see another user's events")
		}
	}
}

func TestEventDeleteBefore(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "dev@example.com")
	project := createTestProject(t, store, "frontend", user.ID)

	old := &models.ErrorEvent{
		ProjectID:   project.ID,
		Message:     "ancient",
		Environment: models.EnvProduction,
		Severity:    models.SeverityError,
		ReceivedAt:  time.Now().Add(-100 * 24 * time.Hour),
	}
	recent := &models.ErrorEvent{
		ProjectID:   project.ID,
		Message:     "recent",
		Environment: models.EnvProduction,
		Severity:    models.SeverityError,
	}
	if err := store.Events().InsertBatch(ctx, []*models.ErrorEvent{old, recent}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	pruned, err := store.Events().DeleteBefore(ctx, time.Now().Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("delete before: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}

	events, total, err := store.Events().ListByProject(ctx, project.ID, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || events[0].Message != "recent" {
		t.Errorf("remaining = %d (%q), want the recent event", total, events[0].Message)
	}
}

func TestEventClientTimestampRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "dev@example.com")
	project := createTestProject(t, store, "frontend", user.ID)

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	err := store.Events().Insert(ctx, &models.ErrorEvent{
		ProjectID:       project.ID,
		Message:         "boom",
		Environment:     models.EnvStaging,
		Severity:        models.SeverityFatal,
		ClientTimestamp: &ts,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	events, _, err := store.Events().ListByProject(ctx, project.ID, 1, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := events[0]
	if got.ClientTimestamp == nil || !got.ClientTimestamp.Equal(ts) {
		t.Errorf("client timestamp = %v, want %v", got.ClientTimestamp, ts)
	}
	if got.ReceivedAt.IsZero() {
		t.Error("received_at should be assigned at persist time")
	}
	if got.Environment != models.EnvStaging || got.Severity != models.SeverityFatal {
		t.Errorf("enums = %q/%q", got.Environment, got.Severity)
	}
}
