package domain

import (
	"cmp"
	"slices"
	"strings"
)

// LabGroup is a research group administered on the server.
type LabGroup struct {
	ID          int64  `json:"id" yaml:"id"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	PI          string `json:"pi" yaml:"pi"`
	MemberCount int    `json:"memberCount" yaml:"memberCount"`
}

// Community is a set of lab groups with shared administrators.
type Community struct {
	ID          int64    `json:"id" yaml:"id"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Admins      []string `json:"admins" yaml:"admins"`
	LabGroupIDs []int64  `json:"labGroupIds" yaml:"labGroupIds"`
}

// SortLabGroups orders groups by display name, ignoring case, then by id.
func SortLabGroups(groups []LabGroup) {
	slices.SortStableFunc(groups, func(a, b LabGroup) int {
		if c := strings.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SIDResult is the outcome of one LDAP SID lookup.
type SIDResult struct {
	Username string `json:"username" yaml:"username"`
	SID      string `json:"sid,omitempty" yaml:"sid,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}
