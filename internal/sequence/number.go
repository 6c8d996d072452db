// Package sequence allocates C209/C208 document numbers.
//
// A document number is a three letter month prefix followed by a zero padded
// four digit sequence, e.g. FEB0001. Sequences are scoped by document type and
// month prefix only; the year is not part of the key.
package sequence

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"skyroute-backend/internal/timeutil"
)

// DocType identifies which document series a number belongs to.
type DocType string

const (
	C209 DocType = "c209"
	C208 DocType = "c208"
)

// Valid reports whether d is a known document type.
func (d DocType) Valid() bool {
	return d == C209 || d == C208
}

// Column is the entries column holding numbers of this type.
func (d DocType) Column() string {
	if d == C208 {
		return "c208_number"
	}
	return "c209_number"
}

// OwnerType is the entry type whose rows allocate numbers of this type.
// Logistic rows repeat the C209 of their RAMP row, so only RAMP rows own C209s.
func (d DocType) OwnerType() string {
	if d == C208 {
		return "logistic_input"
	}
	return "ramp_input"
}

var months = [12]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

var numberPattern = regexp.MustCompile(`^[A-Z]{3}\d{4}$`)

// MaxSeq is the last sequence value that fits the four digit suffix.
const MaxSeq = 9999

// ErrExhausted is returned when a month has used every four digit suffix.
var ErrExhausted = errors.New("sequence exhausted")

// MonthPrefix returns JAN..DEC for the calendar month of t in the operations zone.
func MonthPrefix(t time.Time) string {
	return months[timeutil.ToOps(t).Month()-1]
}

// MonthYear returns the display label, e.g. FEB-26.
func MonthYear(t time.Time) string {
	o := timeutil.ToOps(t)
	return fmt.Sprintf("%s-%02d", months[o.Month()-1], o.Year()%100)
}

// Format joins a prefix and sequence value into a document number.
func Format(prefix string, seq int) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// Valid reports whether number matches the wire format ^[A-Z]{3}\d{4}$.
func Valid(number string) bool {
	return numberPattern.MatchString(number)
}

// Normalize trims and uppercases a user supplied number.
func Normalize(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}

// checkRange rejects sequence values that cannot be written as four digits.
func checkRange(docType DocType, prefix string, seq int) error {
	if seq > MaxSeq {
		return fmt.Errorf("%w: %s %s reached %d", ErrExhausted, docType, prefix, seq)
	}
	return nil
}

// NextAfter returns the sequence value following last within prefix.
// It returns 1 when last does not carry the prefix or its suffix is not a
// non-negative integer, which restarts numbering for that prefix.
func NextAfter(prefix, last string) int {
	if len(last) <= len(prefix) || !strings.HasPrefix(last, prefix) {
		return 1
	}
	n, err := strconv.Atoi(last[len(prefix):])
	if err != nil || n < 0 {
		return 1
	}
	return n + 1
}

// Number is an allocated document number.
type Number struct {
	Type   DocType
	Prefix string
	Seq    int
}

func (n Number) String() string {
	return Format(n.Prefix, n.Seq)
}
