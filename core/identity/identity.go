// Package identity derives login IDs and initial passwords for every kind of account.
package identity

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Kinds of sequenced accounts.
const (
	KindIntern     = "intern"
	KindInstructor = "instructor"
	KindAdmin      = "admin"
	KindManager    = "manager"
)

const seqWidth = 3

var prefixes = map[string]string{
	KindIntern:     "VVINTERN",
	KindInstructor: "VVINSTRUCTOR",
	KindAdmin:      "VVADMIN",
	KindManager:    "VVMANAGER",
}

// Sequence gives access to the IDs already issued under a prefix.
// Implementations must be bound to the transaction that inserts the new ID.
type Sequence interface {
	// LockSequence serialises concurrent generators of the same prefix until the transaction ends.
	LockSequence(ctx context.Context, prefix string) error
	IDsWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// Prefix returns `<RolePrefix><Year>` for the given kind of account.
func Prefix(kind string, year int) (string, error) {
	p, ok := prefixes[kind]
	if !ok {
		return "", errors.Errorf("identity: unknown account kind %q", kind)
	}
	return p + strconv.Itoa(year), nil
}

// NextSequentialID returns prefix + (max numeric suffix among existing + 1), zero padded to 3 digits.
// IDs that do not carry prefix or whose suffix is not made of ASCII digits only are ignored.
func NextSequentialID(prefix string, existing []string) string {
	max := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		suffix := id[len(prefix):]
		if !allDigits(suffix) {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, seqWidth, max+1)
}

// NextID locks the sequence of `kind` for `year` and returns the next free ID.
func NextID(ctx context.Context, seq Sequence, kind string, year int) (string, error) {
	prefix, err := Prefix(kind, year)
	if err != nil {
		return "", err
	}
	if err := seq.LockSequence(ctx, prefix); err != nil {
		return "", errors.Wrap(err, "locking id sequence")
	}
	ids, err := seq.IDsWithPrefix(ctx, prefix)
	if err != nil {
		return "", errors.Wrap(err, "scanning existing ids")
	}
	return NextSequentialID(prefix, ids), nil
}

// InternPassword builds `<First>@<last 4 contact digits>VV`.
func InternPassword(fullName, contact string) string {
	return firstName(fullName, "Stu") + "@" + lastDigits(contact, 4) + "VV"
}

// ManagerPassword builds `<First>@vishvavidya<last 4 contact digits><year>`.
func ManagerPassword(fullName, contact string, year int) string {
	return firstName(fullName, "Manager") + "@vishvavidya" + lastDigits(contact, 4) + strconv.Itoa(year)
}

// AdminPassword builds `<First>@vishvavidya<last 2 contact digits><year>`.
func AdminPassword(fullName, contact string, year int) string {
	return firstName(fullName, "Admin") + "@vishvavidya" + lastDigits(contact, 2) + strconv.Itoa(year)
}

// InstructorPassword builds `<First>@vishvavidya<year>`.
func InstructorPassword(fullName string, year int) string {
	return firstName(fullName, "Trainer") + "@vishvavidya" + strconv.Itoa(year)
}

// InitialPassword dispatches to the password scheme of `kind`.
func InitialPassword(kind, fullName, contact string, year int) (string, error) {
	switch kind {
	case KindIntern:
		return InternPassword(fullName, contact), nil
	case KindManager:
		return ManagerPassword(fullName, contact, year), nil
	case KindAdmin:
		return AdminPassword(fullName, contact, year), nil
	case KindInstructor:
		return InstructorPassword(fullName, year), nil
	}
	return "", errors.Errorf("identity: unknown account kind %q", kind)
}

// firstName returns the capitalised first word of name or placeholder when name is blank.
func firstName(name, placeholder string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return placeholder
	}
	first := strings.ToLower(fields[0])
	r, size := utf8.DecodeRuneInString(first)
	return string(unicode.ToUpper(r)) + first[size:]
}

// lastDigits returns the last n digits of contact, left padded with zeros when contact is shorter.
func lastDigits(contact string, n int) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, contact)
	if len(digits) >= n {
		return digits[len(digits)-n:]
	}
	return strings.Repeat("0", n-len(digits)) + digits
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
