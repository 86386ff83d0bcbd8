package model

import "strings"

// MemberRole is a user's standing inside their club.
//
// Clients send free-form tag lists ("president", "staff", or the legacy
// Korean labels). The role is derived from those tags once, when they are
// written, and stored in its own column; reads never re-parse tags.
type MemberRole string

const (
	RolePresident MemberRole = "president"
	RoleStaff     MemberRole = "staff"
	RoleMember    MemberRole = "member"
)

var presidentLabels = []string{"president", "회장"}
var staffLabels = []string{"staff", "운영진"}

// Valid reports whether r is one of the known roles.
func (r MemberRole) Valid() bool {
	switch r {
	case RolePresident, RoleStaff, RoleMember:
		return true
	}
	return false
}

// Rank orders roles for member listings: president first, member last.
func (r MemberRole) Rank() int {
	switch r {
	case RolePresident:
		return 1
	case RoleStaff:
		return 2
	default:
		return 3
	}
}

// IsStaff is true for presidents and staff.
func (r MemberRole) IsStaff() bool {
	return r == RolePresident || r == RoleStaff
}

// RoleFromTags derives the highest role named in tags.
func RoleFromTags(tags []string) MemberRole {
	role := RoleMember
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if containsLabel(presidentLabels, t) {
			return RolePresident
		}
		if containsLabel(staffLabels, t) {
			role = RoleStaff
		}
	}
	return role
}

// DefaultTags is used for members that never had tags written.
func (r MemberRole) DefaultTags() []string {
	switch r {
	case RolePresident:
		return []string{string(RolePresident), string(RoleStaff)}
	case RoleStaff:
		return []string{string(RoleStaff)}
	default:
		return []string{string(RoleMember)}
	}
}

func containsLabel(labels []string, s string) bool {
	for _, l := range labels {
		if l == s {
			return true
		}
	}
	return false
}
