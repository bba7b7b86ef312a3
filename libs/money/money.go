// Package money represents monetary values as integer cents. Balances and
// amounts travel through JSON, the broker, and the store without ever being
// persisted as floating point.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Money struct {
	cents int64
}

func FromCents(cents int64) Money {
	return Money{cents: cents}
}

// FromFloat converts a decimal amount to cents, rounding half away from zero.
func FromFloat(amount float64) Money {
	return Money{cents: int64(math.Round(amount * 100))}
}

func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, errors.New("money: empty value")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Money{}, fmt.Errorf("money: invalid amount %q", s)
	}
	return FromFloat(f), nil
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Float64() float64 {
	return float64(m.cents) / 100.0
}

func (m Money) IsNegative() bool {
	return m.cents < 0
}

func (m Money) Equal(other Money) bool {
	return m.cents == other.cents
}

// String renders the amount with exactly two decimal places.
func (m Money) String() string {
	units := m.cents / 100
	frac := m.cents % 100
	if frac < 0 {
		frac = -frac
	}
	if m.cents < 0 && units == 0 {
		return fmt.Sprintf("-0.%02d", frac)
	}
	return fmt.Sprintf("%d.%02d", units, frac)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string ("100.00") or a bare number
// (100.0); callers outside the pipeline tend to send the latter.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value stores the amount as cents (a bigint column).
func (m Money) Value() (driver.Value, error) {
	return m.cents, nil
}

func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		m.cents = 0
	case int64:
		m.cents = v
	case int:
		m.cents = int64(v)
	case float64:
		m.cents = int64(math.Round(v))
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
	return nil
}
