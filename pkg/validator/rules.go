package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"time"
)

var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

// Required fails on empty or whitespace-only strings.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: fail(field, "field is required"),
	}
}

// MaxLen fails when value is longer than max bytes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= max },
		Error: fail(field, fmt.Sprintf("must be at most %d characters long", max)),
	}
}

// Email fails unless value is a bare address with a dotted domain.
// Empty values pass; combine with Required when the field is mandatory.
func Email(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value {
				return false
			}
			_, domain, ok := strings.Cut(value, "@")
			return ok && strings.Contains(domain, ".") &&
				!strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
		},
		Error: fail(field, "must be a valid email address"),
	}
}

// Phone fails unless value is an international number. Spaces and dashes are
// ignored. Empty values pass.
func Phone(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			cleaned := strings.NewReplacer(" ", "", "-", "").Replace(value)
			return phoneRegex.MatchString(cleaned)
		},
		Error: fail(field, "must be a valid phone number in international format"),
	}
}

// OneOf fails unless value is in allowed.
func OneOf[T comparable](field string, value T, allowed ...T) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(allowed, value) },
		Error: fail(field, fmt.Sprintf("must be one of: %v", allowed)),
	}
}

// EachOneOf fails if any element of values is not in allowed.
func EachOneOf[T comparable](field string, values []T, allowed ...T) Rule {
	return Rule{
		Check: func() bool {
			for _, v := range values {
				if !slices.Contains(allowed, v) {
					return false
				}
			}
			return true
		},
		Error: fail(field, fmt.Sprintf("each value must be one of: %v", allowed)),
	}
}

// Positive fails unless value > 0.
func Positive(field string, value int64) Rule {
	return Rule{
		Check: func() bool { return value > 0 },
		Error: fail(field, "must be greater than zero"),
	}
}

// NonNegative fails when value < 0.
func NonNegative(field string, value int64) Rule {
	return Rule{
		Check: func() bool { return value >= 0 },
		Error: fail(field, "must not be negative"),
	}
}

// RequiredTime fails on a nil or zero time.
func RequiredTime(field string, value *time.Time) Rule {
	return Rule{
		Check: func() bool { return value != nil && !value.IsZero() },
		Error: fail(field, "field is required"),
	}
}

// NotBefore fails when value is set and earlier than min.
func NotBefore(field string, value *time.Time, min time.Time) Rule {
	return Rule{
		Check: func() bool { return value == nil || !value.Before(min) },
		Error: fail(field, "must not be in the past"),
	}
}
