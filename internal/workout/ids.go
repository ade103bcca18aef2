package workout

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UUID is an identifier in canonical 8-4-4-4-12 hexadecimal form. Obtain one from [ParseUUID] or [NewUUID].
type UUID string

// DateString is a calendar date in YYYY-MM-DD form. Obtain one from [ParseDateString] or [Today].
type DateString string

const canonicalUUIDLength = 36

// NewUUID returns a random version 4 identifier.
func NewUUID() UUID {
	return UUID(uuid.NewString())
}

// ParseUUID accepts s if it is a canonical UUID in any letter case and returns it in lower case. Braced and URN
// forms are rejected.
func ParseUUID(s string) (UUID, error) {
	if len(s) != canonicalUUIDLength {
		return "", inputError("Invalid UUID: " + s)
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", inputError("Invalid UUID: " + s)
	}
	return UUID(strings.ToLower(s)), nil
}

func (u UUID) String() string {
	return string(u)
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDateString accepts s if it is YYYY-MM-DD and names a real calendar day.
func ParseDateString(s string) (DateString, error) {
	if !datePattern.MatchString(s) {
		return "", inputError("Invalid date string: " + s)
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil || t.Format(time.DateOnly) != s {
		return "", inputError("Invalid date string: " + s)
	}
	return DateString(s), nil
}

// Today returns the UTC calendar date of now.
func Today(now time.Time) DateString {
	return DateString(now.UTC().Format(time.DateOnly))
}

func (d DateString) String() string {
	return string(d)
}
