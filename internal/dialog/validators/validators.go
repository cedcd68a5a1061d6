// Package validators checks raw chat input for one questionnaire field and
// returns the normalized value. All functions are pure.
package validators

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

const (
	DefaultAmountMin int64 = 10_000
	DefaultAmountMax int64 = 100_000_000

	nameMinLen = 2
	nameMaxLen = 100
	termMin    = 1
	termMax    = 120
)

// Error is a field rejection. Reason is shown to the user as is.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func reject(field, reason string) *Error {
	return &Error{Field: field, Reason: reason}
}

var (
	nonDigit    = regexp.MustCompile(`\D`)
	nonAmount   = regexp.MustCompile(`[^\d,.]`)
	namePattern = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ\s\p{Z}\-]+$`)
)

// Phone accepts a Russian mobile number and returns its trailing 10 digits.
func Phone(raw string) (string, error) {
	digits := nonDigit.ReplaceAllString(raw, "")

	switch len(digits) {
	case 11:
		if digits[0] != '7' && digits[0] != '8' {
			return "", reject("phone", "Номер должен начинаться с 7, 8 или 9")
		}
	case 10:
		if digits[0] != '9' {
			return "", reject("phone", "Номер должен начинаться с 7, 8 или 9")
		}
	default:
		return "", reject("phone", "Номер должен содержать 10-11 цифр")
	}

	return digits[len(digits)-10:], nil
}

// AmountRange bounds an amount in rubles, inclusive.
type AmountRange struct {
	Min int64
	Max int64
}

// DefaultAmountRange is 10,000 to 100,000,000 rubles.
func DefaultAmountRange() AmountRange {
	return AmountRange{Min: DefaultAmountMin, Max: DefaultAmountMax}
}

// Amount keeps digits and separators, reads a comma as the decimal point and
// truncates the fraction.
func (r AmountRange) Amount(raw string) (int64, error) {
	clean := strings.ReplaceAll(nonAmount.ReplaceAllString(raw, ""), ",", ".")

	f, err := strconv.ParseFloat(clean, 64)
	switch {
	case errors.Is(err, strconv.ErrRange) && f > 0:
		return 0, r.tooLarge()
	case errors.Is(err, strconv.ErrRange):
		return 0, r.tooSmall()
	case err != nil:
		return 0, reject("amount", "Введите корректную сумму (только цифры)")
	}
	// compared as float first so huge inputs never overflow int64
	if math.Trunc(f) > float64(r.Max) {
		return 0, r.tooLarge()
	}

	amount := int64(f)
	if amount < r.Min {
		return 0, r.tooSmall()
	}

	return amount, nil
}

func (r AmountRange) tooLarge() *Error {
	return reject("amount", fmt.Sprintf("Максимальная сумма: %s руб.", humanize.Comma(r.Max)))
}

func (r AmountRange) tooSmall() *Error {
	return reject("amount", fmt.Sprintf("Минимальная сумма: %s руб.", humanize.Comma(r.Min)))
}

// Name accepts 2 to 100 Latin or Cyrillic letters, spaces and hyphens.
func Name(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(name)

	if n < nameMinLen {
		return "", reject("name", "Имя должно содержать минимум 2 символа")
	}
	if n > nameMaxLen {
		return "", reject("name", "Имя слишком длинное (макс. 100 символов)")
	}
	if !namePattern.MatchString(name) {
		return "", reject("name", "Имя содержит недопустимые символы")
	}

	return name, nil
}

// TermMonths accepts a whole number of months from 1 to 120.
func TermMonths(raw string) (int, error) {
	term, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, reject("term_months", "Введите корректное число месяцев")
	}
	if term < termMin {
		return 0, reject("term_months", "Срок должен быть не менее 1 месяца")
	}
	if term > termMax {
		return 0, reject("term_months", "Максимальный срок: 120 месяцев (10 лет)")
	}
	return term, nil
}

// soleProprietorPrefix marks an individual entrepreneur ("ИП Иванов Игорь").
const soleProprietorPrefix = "ип "

// CompanyName accepts a legal entity name. A sole proprietor must be given
// with the full name after the prefix.
func CompanyName(raw string) (string, error) {
	name := strings.TrimSpace(raw)

	if utf8.RuneCountInString(name) < 2 {
		return "", reject("company_name", "Название должно содержать минимум 2 символа")
	}

	if strings.HasPrefix(strings.ToLower(name), soleProprietorPrefix) {
		owner := name[len(soleProprietorPrefix):]
		if len(strings.Fields(owner)) < 2 {
			return "", reject("company_name", "Для ИП укажите ФИО полностью после 'ИП'")
		}
	}

	return name, nil
}
