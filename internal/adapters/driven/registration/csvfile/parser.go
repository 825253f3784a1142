// Package csvfile parses batch registration CSV locally, without a server.
//
// Each record starts with its table:
//
//	user,<username>,<first name>,<last name>,<email>[,<role>[,<affiliation>]]
//	group,<display name>,<pi username>[,<member>;<member>...]
//	community,<display name>[,<admin>;<admin>...[,<group>;<group>...]]
//
// Blank lines and lines starting with # are ignored. A first record whose
// first field is "type" is treated as a header.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.RegistrationParser = (*Parser)(nil)

// Parser is an offline driven.RegistrationParser.
type Parser struct{}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseCSV parses r. Malformed records are reported as messages and skipped.
func (p *Parser) ParseCSV(ctx context.Context, _ string, r io.Reader) (*domain.ParsedRegistration, []string, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	parsed := &domain.ParsedRegistration{}
	var messages []string
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		kind := strings.ToLower(strings.TrimSpace(record[0]))
		if first && kind == "type" {
			first = false
			continue
		}
		first = false

		if msg := p.addRecord(parsed, kind, trimAll(record[1:])); msg != "" {
			messages = append(messages, fmt.Sprintf("line %d: %s", line, msg))
		}
	}
	return parsed, messages, nil
}

// ParseInputString parses pasted text in the same format.
func (p *Parser) ParseInputString(ctx context.Context, input string) (*domain.ParsedRegistration, []string, error) {
	return p.ParseCSV(ctx, "", strings.NewReader(input))
}

// addRecord appends one record and returns a message when it is malformed.
func (p *Parser) addRecord(parsed *domain.ParsedRegistration, kind string, fields []string) string {
	switch kind {
	case "user", "users":
		if len(fields) < 4 {
			return "user needs username, first name, last name and email"
		}
		parsed.Users = append(parsed.Users, domain.UserRow{
			Username:    fields[0],
			FirstName:   fields[1],
			LastName:    fields[2],
			Email:       fields[3],
			Role:        field(fields, 4),
			Affiliation: field(fields, 5),
		})
	case "group", "groups":
		if len(fields) < 2 {
			return "group needs display name and pi"
		}
		parsed.Groups = append(parsed.Groups, domain.GroupRow{
			DisplayName: fields[0],
			PI:          fields[1],
			Members:     splitList(field(fields, 2)),
		})
	case "community", "communities":
		if len(fields) < 1 || fields[0] == "" {
			return "community needs display name"
		}
		parsed.Communities = append(parsed.Communities, domain.CommunityRow{
			DisplayName: fields[0],
			Admins:      splitList(field(fields, 1)),
			LabGroups:   splitList(field(fields, 2)),
		})
	case "":
		return "missing row type"
	default:
		return fmt.Sprintf("unknown row type %q", kind)
	}
	return ""
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}

// splitList splits a ;-separated cell, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
