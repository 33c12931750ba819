package store

import (
	"net/netip"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// newVersion returns a fresh row version.
func newVersion() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

// toPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is not a valid UUID.
func toPgUUID(s string) pgtype.UUID {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

// toPgText converts an optional string to pgtype.Text.
// Returns invalid for nil.
func toPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// fromPgText converts pgtype.Text back to an optional string.
func fromPgText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// toInet parses a client address for an inet column.
// Returns nil when the address is empty or unparseable.
func toInet(s string) *netip.Addr {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		if ap, perr := netip.ParseAddrPort(s); perr == nil {
			addr = ap.Addr()
		} else {
			return nil
		}
	}
	return &addr
}
