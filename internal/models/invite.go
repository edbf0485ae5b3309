package models

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/width"
)

// InviteAlphabet is the symbol set for invite codes. It leaves out characters
// that are easy to confuse when read aloud or copied by hand (0/O, 1/I).
const InviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const inviteBlockLen = 4

// GroupInvite is a shareable code that lets a user join a group.
type GroupInvite struct {
	// ID is the unique identifier for the invite.
	ID uuid.UUID

	// GroupID is the group the code joins.
	GroupID uuid.UUID

	// Code is the shareable code, formatted "XXXX-YYYY".
	Code string

	// ExpiresAt is the last instant the code may be used. Nil means no expiry.
	ExpiresAt *time.Time

	// MaxUses caps the number of joins. Nil means unlimited.
	MaxUses *int

	// CurrentUses counts successful joins.
	CurrentUses int

	// IsActive is false once an admin deactivates the code.
	IsActive bool

	CreatedAt time.Time
	CreatedBy uuid.UUID
}

// IsValid reports whether the code can be used at now.
func (i *GroupInvite) IsValid(now time.Time) bool {
	if !i.IsActive {
		return false
	}
	if i.ExpiresAt != nil && now.After(*i.ExpiresAt) {
		return false
	}
	if i.MaxUses != nil && i.CurrentUses >= *i.MaxUses {
		return false
	}
	return true
}

// GenerateInviteCode returns a random code in the "XXXX-YYYY" format.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, 2*inviteBlockLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	var b strings.Builder
	for i, v := range buf {
		if i == inviteBlockLen {
			b.WriteByte('-')
		}
		// 256 is a multiple of 32, so masking keeps the draw uniform.
		b.WriteByte(InviteAlphabet[int(v)&(len(InviteAlphabet)-1)])
	}
	return b.String(), nil
}

// NormalizeInviteCode turns user input into the stored code format.
// Full-width characters (as typed with many Japanese and Chinese input methods)
// are folded to ASCII, case is ignored and separators are optional.
func NormalizeInviteCode(input string) string {
	folded := width.Fold.String(input)
	var b strings.Builder
	for _, r := range strings.ToUpper(folded) {
		switch {
		case r == '-' || r == ' ' || r == '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	code := b.String()
	if len(code) == 2*inviteBlockLen {
		return code[:inviteBlockLen] + "-" + code[inviteBlockLen:]
	}
	return code
}

// IsWellFormedInviteCode reports whether code matches "XXXX-YYYY" over InviteAlphabet.
func IsWellFormedInviteCode(code string) bool {
	if len(code) != 2*inviteBlockLen+1 || code[inviteBlockLen] != '-' {
		return false
	}
	for i := 0; i < len(code); i++ {
		if i == inviteBlockLen {
			continue
		}
		if !strings.ContainsRune(InviteAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
