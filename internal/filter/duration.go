package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/j-veylop/callmap/internal/billing"
	"github.com/j-veylop/callmap/internal/models"
)

// maxDurationDigits bounds the seconds part of a duration query to 0..999.
const maxDurationDigits = 3

// Duration keeps calls shorter or longer than a number of seconds.
type Duration struct{}

// Apply keeps calls with duration < n for "Ln" and duration > n for "Gn".
func (f Duration) Apply(_ []*billing.Customer, data []models.Call, query string) []models.Call {
	less, n, err := parseDuration(query)
	if err != nil {
		return data
	}
	return keep(data, func(c models.Call) bool {
		if less {
			return c.Duration < n
		}
		return c.Duration > n
	})
}

// Validate implements Validator.
func (Duration) Validate(_ []*billing.Customer, query string) error {
	_, _, err := parseDuration(query)
	return err
}

func parseDuration(query string) (less bool, seconds int, err error) {
	q := strings.TrimSpace(query)
	if len(q) < 2 {
		return false, 0, fmt.Errorf("%w: want L### or G###", ErrInvalidQuery)
	}

	switch q[0] {
	case 'L', 'l':
		less = true
	case 'G', 'g':
		less = false
	default:
		return false, 0, fmt.Errorf("%w: %q must start with L or G", ErrInvalidQuery, query)
	}

	digits := q[1:]
	if len(digits) > maxDurationDigits {
		return false, 0, fmt.Errorf("%w: %q exceeds 999 seconds", ErrInvalidQuery, query)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false, 0, fmt.Errorf("%w: %q is not a number of seconds", ErrInvalidQuery, digits)
		}
	}

	seconds, err = strconv.Atoi(digits)
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return less, seconds, nil
}

// Description implements Filter.
func (Duration) Description() string {
	return "Filter calls based on duration; " +
		"L### returns calls less than specified length, G### for greater"
}
