// Package validate normalizes and checks user input before it reaches the
// assistant: questions, account fields, and the structured trip context.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors. Callers match with errors.Is; the wrapped message carries
// the field-specific detail.
var (
	ErrRequired      = errors.New("value is required")
	ErrTooShort      = errors.New("value is too short")
	ErrTooLong       = errors.New("value is too long")
	ErrInvalidFormat = errors.New("value has an invalid format")
	ErrNotAllowed    = errors.New("value is not allowed")
)

var (
	nameRe       = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑüÜ\s'-]+$`)
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	emailUnsafe  = regexp.MustCompile(`[<>"'%;()&+]`)
	onlySymbols  = regexp.MustCompile(`^[^a-zA-Z0-9áéíóúÁÉÍÓÚñÑ]+$`)
	budgetRe     = regexp.MustCompile(`^\d+(\.\d+)?$`)
	upperRe      = regexp.MustCompile(`[A-Z]`)
	lowerRe      = regexp.MustCompile(`[a-z]`)
	digitRe      = regexp.MustCompile(`[0-9]`)
	specialRe    = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	numericDate  = regexp.MustCompile(`^(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})$`)
	namedDayDate = regexp.MustCompile(`(?i)^(\d{1,2})\s+(?:de\s+)?([a-záéíóú]+)(?:\s+(?:de\s+)?(\d{4}))?$`)
	monthYearRe  = regexp.MustCompile(`(?i)^([a-záéíóú]+)\s+(\d{4})$`)
)

var commonPasswords = map[string]bool{
	"password": true, "12345678": true, "qwerty": true, "abc123": true,
	"password123": true, "123456789": true, "password1": true,
	"welcome": true, "admin123": true, "letmein": true,
}

var months = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"octubre": time.October, "noviembre": time.November, "diciembre": time.December,
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// Question validates and trims a free-text question.
func Question(question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", fmt.Errorf("question: %w", ErrRequired)
	}
	if len([]rune(q)) < 5 {
		return "", fmt.Errorf("question must have at least 5 characters: %w", ErrTooShort)
	}
	if len([]rune(q)) > 1000 {
		return "", fmt.Errorf("question must not exceed 1000 characters: %w", ErrTooLong)
	}
	if onlySymbols.MatchString(q) {
		return "", fmt.Errorf("question must contain readable text: %w", ErrInvalidFormat)
	}
	return q, nil
}

// Name validates and trims a user display name.
func Name(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", fmt.Errorf("name: %w", ErrRequired)
	}
	if len([]rune(n)) < 2 {
		return "", fmt.Errorf("name must have at least 2 characters: %w", ErrTooShort)
	}
	if len([]rune(n)) > 50 {
		return "", fmt.Errorf("name must not exceed 50 characters: %w", ErrTooLong)
	}
	if !nameRe.MatchString(n) {
		return "", fmt.Errorf("name may only contain letters and spaces: %w", ErrInvalidFormat)
	}
	return n, nil
}

// Email validates an address and returns it trimmed and lowercased.
func Email(email string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return "", fmt.Errorf("email: %w", ErrRequired)
	}
	if !emailRe.MatchString(e) {
		return "", fmt.Errorf("email format is invalid: %w", ErrInvalidFormat)
	}
	if len(e) > 254 {
		return "", fmt.Errorf("email must not exceed 254 characters: %w", ErrTooLong)
	}
	if emailUnsafe.MatchString(e) {
		return "", fmt.Errorf("email contains forbidden characters: %w", ErrNotAllowed)
	}
	return e, nil
}

// Password checks password strength. All failed rules are reported together
// via errors.Join.
func Password(password string) error {
	if password == "" {
		return fmt.Errorf("password: %w", ErrRequired)
	}

	var errs []error
	if len(password) < 8 {
		errs = append(errs, fmt.Errorf("password must have at least 8 characters: %w", ErrTooShort))
	}
	if len(password) > 128 {
		errs = append(errs, fmt.Errorf("password must not exceed 128 characters: %w", ErrTooLong))
	}
	if !upperRe.MatchString(password) {
		errs = append(errs, fmt.Errorf("password needs an uppercase letter: %w", ErrInvalidFormat))
	}
	if !lowerRe.MatchString(password) {
		errs = append(errs, fmt.Errorf("password needs a lowercase letter: %w", ErrInvalidFormat))
	}
	if !digitRe.MatchString(password) {
		errs = append(errs, fmt.Errorf("password needs a digit: %w", ErrInvalidFormat))
	}
	if !specialRe.MatchString(password) {
		errs = append(errs, fmt.Errorf("password needs a special character: %w", ErrInvalidFormat))
	}
	if commonPasswords[strings.ToLower(password)] {
		errs = append(errs, fmt.Errorf("password is too common: %w", ErrNotAllowed))
	}
	return errors.Join(errs...)
}

// Destination validates and trims a travel destination.
func Destination(destination string) (string, error) {
	d := strings.TrimSpace(destination)
	if d == "" {
		return "", fmt.Errorf("destination: %w", ErrRequired)
	}
	if len([]rune(d)) < 2 {
		return "", fmt.Errorf("destination must have at least 2 characters: %w", ErrTooShort)
	}
	if len([]rune(d)) > 100 {
		return "", fmt.Errorf("destination must not exceed 100 characters: %w", ErrTooLong)
	}
	if !nameRe.MatchString(d) {
		return "", fmt.Errorf("destination may only contain letters and spaces: %w", ErrInvalidFormat)
	}
	return d, nil
}

// TravelDate validates a flexible date string against the accepted formats
// and checks it falls within ten years back and five years forward of now.
// Accepted: "15/06/2024", "15-06-2024", "15 de junio 2024", "junio 2024"
// (Spanish or English month names).
func TravelDate(date string, now time.Time) (string, error) {
	d := strings.TrimSpace(date)
	if d == "" {
		return "", fmt.Errorf("date: %w", ErrRequired)
	}

	parsed, ok := parseFlexibleDate(d, now)
	if !ok {
		return "", fmt.Errorf(`date format is invalid, use "15/06/2024" or "15 de junio 2024": %w`, ErrInvalidFormat)
	}

	if parsed.Before(now.AddDate(-10, 0, 0)) {
		return "", fmt.Errorf("date cannot be more than 10 years in the past: %w", ErrNotAllowed)
	}
	if parsed.After(now.AddDate(5, 0, 0)) {
		return "", fmt.Errorf("date cannot be more than 5 years in the future: %w", ErrNotAllowed)
	}
	return d, nil
}

func parseFlexibleDate(d string, now time.Time) (time.Time, bool) {
	if m := numericDate.FindStringSubmatch(d); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, false
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
	}

	if m := namedDayDate.FindStringSubmatch(d); m != nil {
		month, ok := months[strings.ToLower(m[2])]
		if !ok {
			return time.Time{}, false
		}
		day, _ := strconv.Atoi(m[1])
		if day < 1 || day > 31 {
			return time.Time{}, false
		}
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
	}

	if m := monthYearRe.FindStringSubmatch(d); m != nil {
		month, ok := months[strings.ToLower(m[1])]
		if !ok {
			return time.Time{}, false
		}
		year, _ := strconv.Atoi(m[2])
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

// Budget parses an amount like "$1,500" and checks the 10..1000000 range.
func Budget(budget string) (float64, error) {
	b := strings.TrimSpace(budget)
	if b == "" {
		return 0, fmt.Errorf("budget: %w", ErrRequired)
	}

	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(b)
	if !budgetRe.MatchString(cleaned) {
		return 0, fmt.Errorf("budget must be a number: %w", ErrInvalidFormat)
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("budget must be a number: %w", ErrInvalidFormat)
	}
	if amount < 10 {
		return 0, fmt.Errorf("budget minimum is $10: %w", ErrNotAllowed)
	}
	if amount > 1000000 {
		return 0, fmt.Errorf("budget must not exceed $1,000,000: %w", ErrNotAllowed)
	}
	return amount, nil
}

var allowedPreferences = []string{
	"aventura", "cultura", "relajación", "gastronomía", "naturaleza",
	"adventure", "culture", "relax", "gastronomy", "nature",
}

// Preferences filters a list of travel preferences down to the known set.
// An empty input is valid; a non-empty input with no recognized entry is not.
func Preferences(prefs []string) ([]string, error) {
	if len(prefs) == 0 {
		return []string{}, nil
	}

	var kept []string
	for _, p := range prefs {
		p = strings.ToLower(strings.TrimSpace(p))
		for _, allowed := range allowedPreferences {
			if p == allowed {
				kept = append(kept, p)
				break
			}
		}
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("preferences must be one of: aventura, cultura, relajación, gastronomía, naturaleza: %w", ErrNotAllowed)
	}
	return kept, nil
}

// ParsePreferences splits a comma-separated preference string and validates it.
func ParsePreferences(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	return Preferences(strings.Split(raw, ","))
}

var textSanitizer = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// SanitizeText escapes markup-significant characters and truncates to
// maxLength runes. A maxLength of 0 means the default of 1000.
func SanitizeText(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 1000
	}

	sanitized := textSanitizer.Replace(strings.TrimSpace(text))
	runes := []rune(sanitized)
	if len(runes) > maxLength {
		sanitized = string(runes[:maxLength])
	}
	return sanitized
}
