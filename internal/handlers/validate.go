package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for user and taxonomy fields.
const (
	maxUsernameLen     = 100
	maxFullNameLen     = 200
	maxEmployeeCodeLen = 50
	minPasswordLen     = 6
	maxPasswordLen     = 200
	maxNameLen         = 200
	maxBranchNameLen   = 200
	maxShopCodeLen     = 50
	maxCommentLen      = 2_000
)

// validateUser checks user form inputs and returns the first error found.
// Password rules are only applied when a password is being set.
func validateUser(username, employeeCode, password string, requirePassword bool) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return "Username is required."
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return "Username is too long (max 100 characters)."
	}
	employeeCode = strings.TrimSpace(employeeCode)
	if employeeCode == "" {
		return "Employee code is required."
	}
	if utf8.RuneCountInString(employeeCode) > maxEmployeeCodeLen {
		return "Employee code is too long (max 50 characters)."
	}
	if requirePassword && password == "" {
		return "Password is required."
	}
	if password != "" {
		if utf8.RuneCountInString(password) < minPasswordLen {
			return "Password must be at least 6 characters."
		}
		if utf8.RuneCountInString(password) > maxPasswordLen {
			return "Password is too long (max 200 characters)."
		}
	}
	return ""
}

// validateTaxonomyName checks a category/model/display-type/material name.
func validateTaxonomyName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 200 characters)."
	}
	return ""
}

// validateBranch checks a branch name and shop code pair.
func validateBranch(name, code string) string {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(code) == "" {
		return "Branch name and code are required"
	}
	if utf8.RuneCountInString(name) > maxBranchNameLen {
		return "Branch name is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(code) > maxShopCodeLen {
		return "Shop code is too long (max 50 characters)."
	}
	return ""
}

// missingEntryFields returns which required submission fields are blank.
func missingEntryFields(branch, shopCode, category, model, displayType string) []string {
	var missing []string
	if strings.TrimSpace(branch) == "" {
		missing = append(missing, "branch")
	}
	if strings.TrimSpace(shopCode) == "" {
		missing = append(missing, "shop_code")
	}
	if strings.TrimSpace(category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(model) == "" {
		missing = append(missing, "model")
	}
	if strings.TrimSpace(displayType) == "" {
		missing = append(missing, "display_type")
	}
	return missing
}
