// Package validate holds the client-side rules forms run before any request
// is issued. A rule is a func() error; First returns the first failure.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Rule checks one condition and returns a user-facing error on failure.
type Rule func() error

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrInvalidEmail is returned by Email and OptionalEmail.
var ErrInvalidEmail = errors.New("Please enter a valid email address")

// First runs rules in order and returns the first error, or nil.
func First(rules ...Rule) error {
	for _, rule := range rules {
		if err := rule(); err != nil {
			return err
		}
	}
	return nil
}

// Required fails when value is blank.
func Required(field, value string) Rule {
	return func() error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// Email fails unless value looks like local@domain.tld.
func Email(value string) Rule {
	return func() error {
		if !emailPattern.MatchString(strings.TrimSpace(value)) {
			return ErrInvalidEmail
		}
		return nil
	}
}

// OptionalEmail is Email but accepts an empty value.
func OptionalEmail(value string) Rule {
	return func() error {
		if strings.TrimSpace(value) == "" {
			return nil
		}
		return Email(value)()
	}
}

// MinPhoneLength fails when a non-empty phone number has fewer than min digits.
// Separators such as spaces, dashes and a leading + are not counted.
func MinPhoneLength(value string, min int) Rule {
	return func() error {
		if strings.TrimSpace(value) == "" {
			return nil
		}
		digits := 0
		for _, r := range value {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		if digits < min {
			return fmt.Errorf("Phone number must be at least %d digits", min)
		}
		return nil
	}
}

// NonNegativeInt fails unless value is empty or parses as an integer >= 0.
func NonNegativeInt(field, value string) Rule {
	return func() error {
		value = strings.TrimSpace(value)
		if value == "" {
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative whole number", field)
		}
		return nil
	}
}

// OneOf fails when value is non-empty and not in allowed.
func OneOf(field, value string, allowed ...string) Rule {
	return func() error {
		if value == "" {
			return nil
		}
		for _, a := range allowed {
			if value == a {
				return nil
			}
		}
		return fmt.Errorf("%s must be one of: %s", field, strings.Join(allowed, ", "))
	}
}

// Field adapts a rule constructor to huh's Validate signature so the same
// rule runs inline while the user types.
func Field(build func(string) Rule) func(string) error {
	return func(s string) error {
		return build(s)()
	}
}

// ParseCount converts an optional non-negative integer field; blank is zero.
func ParseCount(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
