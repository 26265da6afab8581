package services

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"quizio/errs"
	"quizio/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Quiz{}, &models.Question{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(newTestDB(t), NewTokenIssuer("test-secret"))
}

func TestSignup(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Signup(&SignupRequest{Name: "Alice", Email: "alice@x.com", Password: "password1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected a generated user id")
	}
	if user.Token == "" {
		t.Fatal("expected a session token")
	}
	if user.Name != "Alice" || user.Email != "alice@x.com" {
		t.Fatalf("unexpected identity fields: %+v", user)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.Signup(&SignupRequest{Name: "Alice", Email: "alice@x.com", Password: "password1"}); err != nil {
		t.Fatalf("first signup: %v", err)
	}

	_, err := svc.Signup(&SignupRequest{Name: "Alice2", Email: "alice@x.com", Password: "password2"})
	if !errs.IsCode(err, errs.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSignupNeverStoresPlaintextPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, NewTokenIssuer("test-secret"))

	created, err := svc.Signup(&SignupRequest{Name: "Alice", Email: "alice@x.com", Password: "password1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	var stored models.User
	if err := db.First(&stored, "id = ?", created.ID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.PasswordHash == "password1" || stored.PasswordHash == "" {
		t.Fatalf("password not hashed: %q", stored.PasswordHash)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t)
	if _, err := svc.Signup(&SignupRequest{Name: "Alice", Email: "alice@x.com", Password: "password1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	user, err := svc.Login(&LoginRequest{Email: "alice@x.com", Password: "password1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Token == "" {
		t.Fatal("expected a fresh session token")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Login(&LoginRequest{Email: "nobody@x.com", Password: "password1"})
	if !errs.IsCode(err, errs.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(t)
	if _, err := svc.Signup(&SignupRequest{Name: "Alice", Email: "alice@x.com", Password: "password1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	// Wrong password must be unauthorized, not not_found.
	_, err := svc.Login(&LoginRequest{Email: "alice@x.com", Password: "password2"})
	if !errs.IsCode(err, errs.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestGetSession(t *testing.T) {
	svc := newTestAuthService(t)
	created, err := svc.Signup(&SignupRequest{Name: "Alice", Email: "alice@x.com", Password: "password1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	user, err := svc.GetSession(created.Token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if user == nil || user.ID != created.ID {
		t.Fatalf("expected session for %s, got %+v", created.ID, user)
	}
	if user.Email != "alice@x.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}
}

func TestGetSessionSoftFailures(t *testing.T) {
	svc := newTestAuthService(t)

	// No token, garbage token and a token for a vanished user all resolve
	// to a nil user without an error.
	for _, token := range []string{"", "not-a-token"} {
		user, err := svc.GetSession(token)
		if err != nil {
			t.Fatalf("token %q: unexpected error %v", token, err)
		}
		if user != nil {
			t.Fatalf("token %q: expected nil user, got %+v", token, user)
		}
	}

	orphan, err := svc.tokens.Issue("no-such-user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	user, err := svc.GetSession(orphan)
	if err != nil {
		t.Fatalf("orphan session: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user for deleted subject, got %+v", user)
	}
}

func TestGetUserByID(t *testing.T) {
	svc := newTestAuthService(t)
	created, err := svc.Signup(&SignupRequest{Name: "Alice", Email: "alice@x.com", Password: "password1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	user, err := svc.GetUserByID(created.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.ID != created.ID || user.Name != "Alice" || user.Email != "alice@x.com" {
		t.Fatalf("unexpected projection: %+v", user)
	}

	if _, err := svc.GetUserByID("missing"); !errs.IsCode(err, errs.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestGetUsernameByID(t *testing.T) {
	svc := newTestAuthService(t)
	created, err := svc.Signup(&SignupRequest{Name: "Alice", Email: "alice@x.com", Password: "password1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	name, err := svc.GetUsernameByID(created.ID)
	if err != nil {
		t.Fatalf("get username: %v", err)
	}
	if name != "Alice" {
		t.Fatalf("expected Alice, got %q", name)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := newTestAuthService(t)
	created, err := svc.Signup(&SignupRequest{Name: "Alice", Email: "alice@x.com", Password: "password1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	user, err := svc.UpdateProfile(created.ID, &UpdateProfileRequest{Name: "Alice B", Role: "teacher", Bio: "hi"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if user.Name != "Alice B" || user.Role != "teacher" || user.Bio != "hi" {
		t.Fatalf("unexpected profile: %+v", user)
	}
	// Email stays immutable.
	if user.Email != "alice@x.com" {
		t.Fatalf("email changed: %q", user.Email)
	}

	if _, err := svc.UpdateProfile("missing", &UpdateProfileRequest{Name: "X"}); !errs.IsCode(err, errs.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}
