package domain

import (
	"strings"
)

// RowKind identifies a batch registration table.
type RowKind string

// Batch registration tables.
const (
	RowKindUser      RowKind = "user"
	RowKindGroup     RowKind = "group"
	RowKindCommunity RowKind = "community"
)

// UserRow is a user to create.
type UserRow struct {
	Username    string            `json:"username" validate:"required,max=50"`
	FirstName   string            `json:"firstName" validate:"required"`
	LastName    string            `json:"lastName" validate:"required"`
	Email       string            `json:"email" validate:"required,email"`
	Role        string            `json:"role,omitempty"`
	Affiliation string            `json:"affiliation,omitempty"`
	Errors      map[string]string `json:"errors,omitempty" validate:"-"`
}

// GroupRow is a lab group to create.
type GroupRow struct {
	DisplayName string            `json:"displayName" validate:"required"`
	PI          string            `json:"pi" validate:"required"`
	Members     []string          `json:"otherMembers,omitempty"`
	Errors      map[string]string `json:"errors,omitempty" validate:"-"`
}

// CommunityRow is a community to create.
type CommunityRow struct {
	DisplayName string            `json:"displayName" validate:"required"`
	Admins      []string          `json:"admins,omitempty"`
	LabGroups   []string          `json:"labGroups,omitempty"`
	Errors      map[string]string `json:"errors,omitempty" validate:"-"`
}

// ParsedRegistration holds the "toCreate" tables of a batch registration.
type ParsedRegistration struct {
	Users       []UserRow      `json:"parsedUsers"`
	Groups      []GroupRow     `json:"parsedGroups"`
	Communities []CommunityRow `json:"parsedCommunities"`
}

// VisibleTables returns the kinds whose table has at least one row.
// Empty tables stay hidden.
func (p ParsedRegistration) VisibleTables() []RowKind {
	var kinds []RowKind
	if len(p.Users) > 0 {
		kinds = append(kinds, RowKindUser)
	}
	if len(p.Groups) > 0 {
		kinds = append(kinds, RowKindGroup)
	}
	if len(p.Communities) > 0 {
		kinds = append(kinds, RowKindCommunity)
	}
	return kinds
}

// IsEmpty reports whether nothing was parsed.
func (p ParsedRegistration) IsEmpty() bool {
	return len(p.VisibleTables()) == 0
}

// RowErrorCount returns how many rows carry a routed error.
func (p ParsedRegistration) RowErrorCount() int {
	n := 0
	for _, u := range p.Users {
		if len(u.Errors) > 0 {
			n++
		}
	}
	for _, g := range p.Groups {
		if len(g.Errors) > 0 {
			n++
		}
	}
	for _, c := range p.Communities {
		if len(c.Errors) > 0 {
			n++
		}
	}
	return n
}

// DuplicateUsernames returns each username that appears more than once,
// in the order its second occurrence is met. Comparison ignores case.
func DuplicateUsernames(users []UserRow) []string {
	seen := make(map[string]int, len(users))
	var dups []string
	for _, u := range users {
		key := strings.ToLower(strings.TrimSpace(u.Username))
		if key == "" {
			continue
		}
		seen[key]++
		if seen[key] == 2 {
			dups = append(dups, u.Username)
		}
	}
	return dups
}

// ValidationMessage is a server validation error addressed to one row field.
// On the wire it reads "<Prefix>.<uniqueKey>.<field>.<message>".
type ValidationMessage struct {
	Kind      RowKind
	UniqueKey string
	Field     string
	Message   string
}

// ParseValidationMessage splits a server error string. ok is false when the
// string does not follow the convention or names an unknown table.
func ParseValidationMessage(s string) (ValidationMessage, bool) {
	parts := strings.SplitN(s, ".", 4)
	if len(parts) != 4 {
		return ValidationMessage{}, false
	}
	var kind RowKind
	switch strings.ToLower(parts[0]) {
	case "user", "users":
		kind = RowKindUser
	case "group", "groups":
		kind = RowKindGroup
	case "community", "communities":
		kind = RowKindCommunity
	default:
		return ValidationMessage{}, false
	}
	if parts[1] == "" || parts[2] == "" {
		return ValidationMessage{}, false
	}
	return ValidationMessage{
		Kind:      kind,
		UniqueKey: parts[1],
		Field:     parts[2],
		Message:   strings.TrimSpace(parts[3]),
	}, true
}

// RouteValidationMessages attaches each message to the row it names.
// Messages that match no row are returned unchanged.
func (p *ParsedRegistration) RouteValidationMessages(messages []string) []string {
	var unrouted []string
	for _, raw := range messages {
		vm, ok := ParseValidationMessage(raw)
		if !ok || !p.attach(vm) {
			unrouted = append(unrouted, raw)
		}
	}
	return unrouted
}

func (p *ParsedRegistration) attach(vm ValidationMessage) bool {
	switch vm.Kind {
	case RowKindUser:
		for i := range p.Users {
			if p.Users[i].Username == vm.UniqueKey {
				p.Users[i].Errors = setRowError(p.Users[i].Errors, vm)
				return true
			}
		}
	case RowKindGroup:
		for i := range p.Groups {
			if p.Groups[i].DisplayName == vm.UniqueKey {
				p.Groups[i].Errors = setRowError(p.Groups[i].Errors, vm)
				return true
			}
		}
	case RowKindCommunity:
		for i := range p.Communities {
			if p.Communities[i].DisplayName == vm.UniqueKey {
				p.Communities[i].Errors = setRowError(p.Communities[i].Errors, vm)
				return true
			}
		}
	}
	return false
}

func setRowError(errs map[string]string, vm ValidationMessage) map[string]string {
	if errs == nil {
		errs = make(map[string]string)
	}
	errs[vm.Field] = vm.Message
	return errs
}

// ErrorList carries server validation messages.
type ErrorList struct {
	ErrorMessages []string `json:"errorMessages"`
}

// Envelope is the response shape of the administration endpoints.
type Envelope[T any] struct {
	Data     T          `json:"data"`
	ErrorMsg *ErrorList `json:"errorMsg"`
}

// Messages returns the validation messages, if any.
func (e Envelope[T]) Messages() []string {
	if e.ErrorMsg == nil {
		return nil
	}
	return e.ErrorMsg.ErrorMessages
}

// HasErrors reports whether the server returned validation messages.
func (e Envelope[T]) HasErrors() bool {
	return len(e.Messages()) > 0
}

// BatchCreateResult summarises a batch creation run.
type BatchCreateResult struct {
	// Created counts created rows per table.
	Created map[RowKind]int

	// Rows is the submitted registration with server errors routed to rows.
	Rows ParsedRegistration

	// Unrouted holds server messages that name no row.
	Unrouted []string

	// Cancelled lists tables that were not submitted because the run was stopped.
	Cancelled []RowKind
}
