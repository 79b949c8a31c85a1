// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"poptrack/internal/middleware"
	"poptrack/internal/models"
	"poptrack/internal/storage"
	"poptrack/internal/store"
)

// AdminUsers groups the account management handlers.
type AdminUsers struct {
	users    *store.UserStore
	branches *store.BranchStore
	entries  *store.EntryStore
	files    *storage.Local
}

// NewAdminUsers creates a new AdminUsers handler group.
func NewAdminUsers(users *store.UserStore, branches *store.BranchStore, entries *store.EntryStore, files *storage.Local) *AdminUsers {
	return &AdminUsers{
		users:    users,
		branches: branches,
		entries:  entries,
		files:    files,
	}
}

// List returns all accounts with their branch counts.
func (u *AdminUsers) List(w http.ResponseWriter, r *http.Request) {
	users, err := u.users.List()
	if err != nil {
		serverError(w, "list users", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

// userRequest is the account mutation envelope.
type userRequest struct {
	Action       string `json:"action"` // add, edit, delete
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	EmployeeCode string `json:"employee_code"`
	Password     string `json:"password"`
	IsAdmin      bool   `json:"is_admin"`
}

// Manage dispatches an account mutation.
func (u *AdminUsers) Manage(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Action {
	case "add":
		u.create(w, &req)
	case "edit":
		u.update(w, &req)
	case "delete":
		u.delete(w, r, &req)
	default:
		fail(w, http.StatusBadRequest, "Invalid action")
	}
}

func (u *AdminUsers) create(w http.ResponseWriter, req *userRequest) {
	if msg := validateUser(req.Username, req.EmployeeCode, req.Password, true); msg != "" {
		fail(w, http.StatusBadRequest, msg)
		return
	}

	_, err := u.users.Create(req.Username, req.Password, req.EmployeeCode, fullNamePtr(req.FullName), req.IsAdmin)
	if errors.Is(err, store.ErrConflict) {
		fail(w, http.StatusConflict, "User with this username or employee code already exists")
		return
	}
	if err != nil {
		serverError(w, "create user", err)
		return
	}

	ok(w, "User added successfully")
}

func (u *AdminUsers) update(w http.ResponseWriter, req *userRequest) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if msg := validateUser(req.Username, req.EmployeeCode, req.Password, false); msg != "" {
		fail(w, http.StatusBadRequest, msg)
		return
	}

	err = u.users.Update(id, req.Username, req.EmployeeCode, fullNamePtr(req.FullName), req.IsAdmin, req.Password)
	if errors.Is(err, store.ErrConflict) {
		fail(w, http.StatusConflict, "Another user with this username or employee code already exists")
		return
	}
	if err != nil {
		serverError(w, "update user", err)
		return
	}

	ok(w, "User updated successfully")
}

// delete removes an account and everything recorded under its employee
// code: registered branches, entries, and the entry photos on disk.
// Self-deletion and deleting the last admin are refused.
func (u *AdminUsers) delete(w http.ResponseWriter, r *http.Request, req *userRequest) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if sess.UserID == id {
		fail(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	user, err := u.users.FindByID(id)
	if err != nil {
		serverError(w, "find user for delete", err)
		return
	}
	if user == nil {
		fail(w, http.StatusNotFound, "User not found")
		return
	}

	if user.IsAdmin {
		admins, err := u.users.AdminCount()
		if err != nil {
			serverError(w, "count admins", err)
			return
		}
		if admins <= 1 {
			fail(w, http.StatusBadRequest, "Cannot delete the last admin user")
			return
		}
	}

	if err := u.branches.DeleteByEmployeeCode(user.EmployeeCode); err != nil {
		serverError(w, "delete user branches", err)
		return
	}

	entries, err := u.entries.DeleteByEmployeeCode(user.EmployeeCode)
	if err != nil {
		serverError(w, "delete user entries", err)
		return
	}
	for _, entry := range entries {
		for _, name := range entry.ImageList() {
			if err := u.files.Delete(name); err != nil {
				slog.Warn("entry image cleanup failed", "file", name, "error", err)
			}
		}
	}

	if err := u.users.Delete(id); err != nil {
		serverError(w, "delete user", err)
		return
	}

	slog.Info("user deleted", "username", user.Username, "entries_removed", len(entries))
	ok(w, "User deleted successfully")
}

// ResetTwoFA clears a user's TOTP enrollment so they re-enroll on next
// login.
func (u *AdminUsers) ResetTwoFA(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := u.users.ResetTOTP(id); err != nil {
		serverError(w, "reset totp", err)
		return
	}

	ok(w, "Two-factor authentication reset successfully")
}

// Branches returns a user's branch assignments with their shop codes.
func (u *AdminUsers) Branches(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := u.users.FindByID(id)
	if err != nil {
		serverError(w, "find user", err)
		return
	}
	if user == nil {
		fail(w, http.StatusNotFound, "User not found")
		return
	}

	items, err := u.branches.SearchForUser(user.ID, user.EmployeeCode, "")
	if err != nil {
		serverError(w, "list user branches", err)
		return
	}
	if items == nil {
		items = []models.Branch{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "branches": items})
}

// branchRequest is the branch assignment mutation envelope.
type branchRequest struct {
	Action     string `json:"action"` // add_branch, remove_branch, add_multiple_branches
	BranchName string `json:"branch_name"`
	BranchCode string `json:"branch_code"`
	Branches   []struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"branches"`
}

// ManageBranches adds or removes a user's branch assignments. Adding a
// branch also registers it (with its shop code) under the user's employee
// code, subject to the one-shop-code-one-branch rule.
func (u *AdminUsers) ManageBranches(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := u.users.FindByID(id)
	if err != nil {
		serverError(w, "find user", err)
		return
	}
	if user == nil {
		fail(w, http.StatusNotFound, "User not found")
		return
	}

	var req branchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Action {
	case "add_branch":
		u.addBranch(w, user, req.BranchName, req.BranchCode)
	case "remove_branch":
		u.removeBranch(w, user, req.BranchName)
	case "add_multiple_branches":
		u.addMultipleBranches(w, user, &req)
	default:
		fail(w, http.StatusBadRequest, "Invalid action")
	}
}

func (u *AdminUsers) addBranch(w http.ResponseWriter, user *models.User, name, code string) {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if msg := validateBranch(name, code); msg != "" {
		fail(w, http.StatusBadRequest, msg)
		return
	}

	assigned, err := u.branches.IsAssigned(user.ID, name)
	if err != nil {
		serverError(w, "check branch assignment", err)
		return
	}
	if assigned {
		fail(w, http.StatusBadRequest, "Branch already exists for this user")
		return
	}

	if _, err := u.branches.Save(name, code, user.EmployeeCode); err != nil {
		if errors.Is(err, store.ErrConflict) {
			fail(w, http.StatusConflict,
				fmt.Sprintf("Shop code %q is already used for another branch", code))
			return
		}
		serverError(w, "save branch", err)
		return
	}

	if err := u.branches.Assign(user.ID, name); err != nil {
		serverError(w, "assign branch", err)
		return
	}

	ok(w, "Branch added successfully")
}

func (u *AdminUsers) removeBranch(w http.ResponseWriter, user *models.User, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		fail(w, http.StatusBadRequest, "Branch name is required")
		return
	}

	assigned, err := u.branches.IsAssigned(user.ID, name)
	if err != nil {
		serverError(w, "check branch assignment", err)
		return
	}
	if !assigned {
		fail(w, http.StatusNotFound, "Branch not found")
		return
	}

	if err := u.branches.Unassign(user.ID, name); err != nil {
		serverError(w, "unassign branch", err)
		return
	}
	if err := u.branches.Delete(name, user.EmployeeCode); err != nil {
		serverError(w, "delete branch", err)
		return
	}

	ok(w, "Branch removed successfully")
}

func (u *AdminUsers) addMultipleBranches(w http.ResponseWriter, user *models.User, req *branchRequest) {
	if len(req.Branches) == 0 {
		fail(w, http.StatusBadRequest, "No branches provided")
		return
	}

	added := 0
	for _, b := range req.Branches {
		name := strings.TrimSpace(b.Name)
		code := strings.TrimSpace(b.Code)
		if name == "" || code == "" {
			continue
		}

		assigned, err := u.branches.IsAssigned(user.ID, name)
		if err != nil {
			serverError(w, "check branch assignment", err)
			return
		}
		if assigned {
			continue
		}

		if _, err := u.branches.Save(name, code, user.EmployeeCode); err != nil {
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			serverError(w, "save branch", err)
			return
		}
		if err := u.branches.Assign(user.ID, name); err != nil {
			serverError(w, "assign branch", err)
			return
		}
		added++
	}

	if added == 0 {
		fail(w, http.StatusBadRequest, "No new branches were added (all already exist)")
		return
	}

	ok(w, fmt.Sprintf("%d branches added successfully", added))
}

// fullNamePtr converts an optional full name to its nullable storage form.
func fullNamePtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
