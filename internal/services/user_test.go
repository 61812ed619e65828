package services

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/dineatlas/dineatlas/backend/internal/models"
)

func newUserTestEnv(t *testing.T) (*UserService, *gorm.DB, *models.User) {
	t.Helper()
	db := newSessionDB(t)
	user := createSessionUser(t, db)
	return NewUserService(db), db, user
}

func TestUserService_SetRole(t *testing.T) {
	users, db, user := newUserTestEnv(t)

	if _, err := users.SetRole(user.ID, "superuser", 1); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("err = %v, expected ErrInvalidRole", err)
	}
	if _, err := users.SetRole(9999, models.RoleOwner, 1); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, expected ErrUserNotFound", err)
	}

	if _, err := users.SetRole(user.ID, models.RoleOwner, 1); err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}

	var reread models.User
	db.First(&reread, user.ID)
	if reread.Role != models.RoleOwner {
		t.Errorf("role = %q, expected owner", reread.Role)
	}
	if reread.TokenVersion != user.TokenVersion+1 {
		t.Errorf("token_version = %d, a role change must invalidate tokens", reread.TokenVersion)
	}
}

func TestUserService_SetActive(t *testing.T) {
	users, db, user := newUserTestEnv(t)

	if _, err := users.SetActive(user.ID, false, 1); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	var reread models.User
	db.First(&reread, user.ID)
	if reread.IsActive {
		t.Error("account should be disabled")
	}
	if reread.TokenVersion != user.TokenVersion+1 {
		t.Errorf("token_version = %d, deactivation must invalidate tokens", reread.TokenVersion)
	}

	// Re-enabling does not churn the version again.
	users.SetActive(user.ID, true, 1)
	db.First(&reread, user.ID)
	if !reread.IsActive {
		t.Error("account should be enabled")
	}
	if reread.TokenVersion != user.TokenVersion+1 {
		t.Errorf("token_version = %d, re-enabling must not bump the version", reread.TokenVersion)
	}
}

func TestUserService_List(t *testing.T) {
	users, db, _ := newUserTestEnv(t)

	db.Create(&models.User{Email: "owner@example.com", Name: "Olive Owner", Role: models.RoleOwner, IsActive: true})
	db.Create(&models.User{Email: "admin@example.com", Name: "Ada Admin", Role: models.RoleAdmin, IsActive: true})

	all, err := users.List(&UserListRequest{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.Total != 3 {
		t.Errorf("total = %d, expected 3", all.Total)
	}

	owners, _ := users.List(&UserListRequest{Role: models.RoleOwner})
	if owners.Total != 1 || owners.Items[0].Email != "owner@example.com" {
		t.Errorf("role filter returned %+v", owners.Items)
	}

	search, _ := users.List(&UserListRequest{Search: "Ada"})
	if search.Total != 1 || search.Items[0].Role != models.RoleAdmin {
		t.Errorf("search filter returned %+v", search.Items)
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	users, db, user := newUserTestEnv(t)

	updated, err := users.UpdateProfile(user.ID, "New Name")
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Name != "New Name" {
		t.Errorf("name = %q", updated.Name)
	}

	var reread models.User
	db.First(&reread, user.ID)
	if reread.TokenVersion != user.TokenVersion {
		t.Error("a profile edit must not invalidate tokens")
	}
}
