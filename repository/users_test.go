package repository

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/auth/password"
	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/errors"
)

func testOptions(c *clock) []Option {
	return []Option{
		WithHasher(password.NewPBKDF2Hasher(1000)),
		WithPasswordPolicy(password.Policy{MinLength: 8}),
		WithClock(c.Now),
	}
}

func newUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := domain.NewUser("Ann", email, domain.VisibilityPublic)
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	return u
}

func TestSecuredUserCreate(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	backend := newFakeUsers()
	repo := NewSecuredUserRepository(backend, testOptions(c)...)

	u := newUser(t, "ann@example.com")
	su, err := repo.Create(ctx, u, "correct horse")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !su.CreatedAt.Equal(c.Now()) || !su.UpdatedAt.Equal(su.CreatedAt) {
		t.Errorf("expected created_at == updated_at == now, got %v %v", su.CreatedAt, su.UpdatedAt)
	}
	if su.PasswordHash == "" || len(su.Salt) == 0 || su.PasswordHash == "correct horse" {
		t.Fatal("expected a salted hash to be stored")
	}
	if !repo.VerifyPassword(*su, "correct horse") || repo.VerifyPassword(*su, "wrong horse") {
		t.Error("VerifyPassword mismatch")
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected the caller's user to be stamped")
	}

	stored, found, err := repo.GetByEmail(ctx, "ANN@example.com ")
	if err != nil || !found || stored.ID != u.ID {
		t.Fatalf("GetByEmail: %v %v %v", stored.ID, found, err)
	}
}

func TestSecuredUserCreateNilIsNoop(t *testing.T) {
	backend := newFakeUsers()
	repo := NewSecuredUserRepository(backend, testOptions(newClock())...)

	su, err := repo.Create(context.Background(), nil, "correct horse")
	if err != nil || su != nil {
		t.Fatalf("expected silent no-op, got %v %v", su, err)
	}
	if backend.total() != 0 {
		t.Errorf("backend touched %d times", backend.total())
	}
}

func TestSecuredUserCreateRejectsUnsecurePassword(t *testing.T) {
	for _, pw := range []string{"", "   ", "short"} {
		backend := newFakeUsers()
		repo := NewSecuredUserRepository(backend, testOptions(newClock())...)

		_, err := repo.Create(context.Background(), newUser(t, "ann@example.com"), pw)
		if !errors.HasCode(err, errors.ErrCodeUnsecurePassword) {
			t.Errorf("password %q: expected UNSECURE_PASSWORD, got %v", pw, err)
		}
		if backend.total() != 0 {
			t.Errorf("password %q: backend touched", pw)
		}
	}
}

func TestSecuredUserCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	backend := newFakeUsers()
	repo := NewSecuredUserRepository(backend, testOptions(newClock())...)

	first := newUser(t, "ann@example.com")
	if _, err := repo.Create(ctx, first, "correct horse"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := repo.Create(ctx, newUser(t, "ann@example.com"), "correct horse")
	if !errors.HasCode(err, errors.ErrCodeAlreadyExisting) {
		t.Errorf("same email: expected ALREADY_EXISTING, got %v", err)
	}

	sameID := newUser(t, "bob@example.com")
	sameID.ID = first.ID
	_, err = repo.Create(ctx, sameID, "correct horse")
	if !errors.HasCode(err, errors.ErrCodeAlreadyExisting) {
		t.Errorf("same id: expected ALREADY_EXISTING, got %v", err)
	}
	if backend.get("Insert") != 1 {
		t.Errorf("expected one insert, got %d", backend.get("Insert"))
	}
}

func TestSamePasswordDistinctHashes(t *testing.T) {
	ctx := context.Background()
	repo := NewSecuredUserRepository(newFakeUsers(), testOptions(newClock())...)

	a, err := repo.Create(ctx, newUser(t, "a@example.com"), "same password")
	if err != nil {
		t.Fatal(err)
	}
	b, err := repo.Create(ctx, newUser(t, "b@example.com"), "same password")
	if err != nil {
		t.Fatal(err)
	}
	if a.PasswordHash == b.PasswordHash || string(a.Salt) == string(b.Salt) {
		t.Error("expected distinct salts and hashes")
	}
}

func TestUserGetByIDNilSkipsBackend(t *testing.T) {
	backend := newFakeUsers()
	repo := NewUserRepository(backend, testOptions(newClock())...)

	_, found, err := repo.GetByID(context.Background(), uuid.Nil)
	if err != nil || found {
		t.Fatalf("expected absent, got %v %v", found, err)
	}
	if _, found, _ := repo.GetByEmail(context.Background(), "  "); found {
		t.Error("blank email should be absent")
	}
	if backend.total() != 0 {
		t.Errorf("backend touched %d times", backend.total())
	}
}

func TestUserFindByIDMissing(t *testing.T) {
	repo := NewUserRepository(newFakeUsers(), testOptions(newClock())...)
	_, err := repo.FindByID(context.Background(), uuid.New())
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUserUpdate(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	backend := newFakeUsers()
	secured := NewSecuredUserRepository(backend, testOptions(c)...)
	users := NewUserRepository(backend, testOptions(c)...)

	u := newUser(t, "ann@example.com")
	created, err := secured.Create(ctx, u, "correct horse")
	if err != nil {
		t.Fatal(err)
	}

	c.Advance(time.Minute)
	patch := *u
	patch.Name = "Annie"
	patch.Email = "other@example.com"
	patch.Visibility = domain.VisibilityPrivate
	patch.CreatedAt = time.Time{}

	updated, err := users.Update(ctx, &patch)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Annie" || updated.Visibility != domain.VisibilityPrivate {
		t.Errorf("mutable fields not merged: %+v", updated)
	}
	if updated.Email != "ann@example.com" {
		t.Errorf("email changed to %q", updated.Email)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) || !updated.UpdatedAt.Equal(c.Now()) {
		t.Errorf("unexpected timestamps %v %v", updated.CreatedAt, updated.UpdatedAt)
	}

	stored, _, _ := secured.GetByID(ctx, u.ID)
	if stored.PasswordHash != created.PasswordHash {
		t.Error("update must not touch the password")
	}
}

func TestUserUpdateUnknownNeverUpserts(t *testing.T) {
	backend := newFakeUsers()
	repo := NewUserRepository(backend, testOptions(newClock())...)

	_, err := repo.Update(context.Background(), newUser(t, "ghost@example.com"))
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if backend.get("UpdateByID") != 0 || backend.get("Insert") != 0 {
		t.Error("backend must not be written")
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	repo := NewSecuredUserRepository(newFakeUsers(), testOptions(c)...)

	u := newUser(t, "ann@example.com")
	before, err := repo.Create(ctx, u, "correct horse")
	if err != nil {
		t.Fatal(err)
	}
	c.Advance(time.Second)
	if _, err := repo.ChangePassword(ctx, u.ID, "battery staple"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	after, _, _ := repo.GetByID(ctx, u.ID)
	if string(after.Salt) == string(before.Salt) {
		t.Error("expected a new salt")
	}
	if !repo.VerifyPassword(after, "battery staple") || repo.VerifyPassword(after, "correct horse") {
		t.Error("password not replaced")
	}
	if !after.UpdatedAt.After(after.CreatedAt) {
		t.Error("expected updated_at to advance")
	}

	if _, err := repo.ChangePassword(ctx, uuid.New(), "battery staple"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	if _, err := repo.ChangePassword(ctx, u.ID, ""); !errors.HasCode(err, errors.ErrCodeUnsecurePassword) {
		t.Errorf("expected UNSECURE_PASSWORD, got %v", err)
	}
}

func TestUserDelete(t *testing.T) {
	ctx := context.Background()
	backend := newFakeUsers()
	secured := NewSecuredUserRepository(backend, testOptions(newClock())...)
	users := NewUserRepository(backend, testOptions(newClock())...)

	if err := users.DeleteByID(ctx, uuid.Nil); err != nil || backend.get("DeleteByID") != 0 {
		t.Fatalf("nil id should be ignored: %v", err)
	}

	u := newUser(t, "ann@example.com")
	if _, err := secured.Create(ctx, u, "correct horse"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := users.DeleteByID(ctx, u.ID); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}
	if _, found, _ := users.GetByID(ctx, u.ID); found {
		t.Error("user still present")
	}
}

func TestCheckUserExistsByIDOrEmail(t *testing.T) {
	ctx := context.Background()
	backend := newFakeUsers()
	secured := NewSecuredUserRepository(backend, testOptions(newClock())...)
	users := NewUserRepository(backend, testOptions(newClock())...)

	u := newUser(t, "ann@example.com")
	if _, err := secured.Create(ctx, u, "correct horse"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		id    uuid.UUID
		email string
		want  bool
	}{
		{"nil and blank", uuid.Nil, "", false},
		{"by id", u.ID, "", true},
		{"by email", uuid.Nil, "ann@example.com", true},
		{"unknown id known email", uuid.New(), "ann@example.com", true},
		{"unknown", uuid.New(), "bob@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := users.CheckUserExistsByIDOrEmail(ctx, tt.id, tt.email)
			if err != nil || got != tt.want {
				t.Errorf("got %v %v, want %v", got, err, tt.want)
			}
		})
	}
}

func TestBackendFailureIsApplicationError(t *testing.T) {
	backend := newFakeUsers()
	backend.err = stderrors.New("connection reset")
	repo := NewUserRepository(backend, testOptions(newClock())...)

	_, _, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.HasCode(err, errors.ErrCodeApplication) {
		t.Fatalf("expected APPLICATION_ERROR, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.HTTPStatus != 500 {
		t.Errorf("expected 500, got %d", appErr.HTTPStatus)
	}
}
