package utils

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidPostalCode - почтовый индекс пустой или длиннее 8 цифр
var ErrInvalidPostalCode = errors.New("invalid postal code")

// DigitsOnly оставляет в строке только цифры
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePostalCode приводит CEP к 8 цифрам с нулями слева: "01310-100" -> "01310100", "1310100" -> "01310100"
func NormalizePostalCode(raw string) (string, error) {
	digits := DigitsOnly(raw)
	if digits == "" || len(digits) > 8 {
		return "", ErrInvalidPostalCode
	}
	return strings.Repeat("0", 8-len(digits)) + digits, nil
}

// NormalizeEmail обрезает пробелы и приводит email к нижнему регистру
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeText обрезает пробелы и схлопывает повторяющиеся пробельные символы
func NormalizeText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// IsValidDocument проверяет CPF (11 цифр) или CNPJ (14 цифр) в каноническом виде
func IsValidDocument(digits string) bool {
	switch len(digits) {
	case 11:
		return IsValidCPF(digits)
	case 14:
		return IsValidCNPJ(digits)
	default:
		return false
	}
}

// IsValidCPF проверяет контрольные цифры CPF
func IsValidCPF(cpf string) bool {
	if len(cpf) != 11 || allSameDigit(cpf) {
		return false
	}
	d := toDigits(cpf)
	if d == nil {
		return false
	}

	for pos := 9; pos <= 10; pos++ {
		sum := 0
		for i := 0; i < pos; i++ {
			sum += d[i] * (pos + 1 - i)
		}
		check := (sum * 10) % 11
		if check == 10 {
			check = 0
		}
		if check != d[pos] {
			return false
		}
	}
	return true
}

// IsValidCNPJ проверяет контрольные цифры CNPJ
func IsValidCNPJ(cnpj string) bool {
	if len(cnpj) != 14 || allSameDigit(cnpj) {
		return false
	}
	d := toDigits(cnpj)
	if d == nil {
		return false
	}

	weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

	for pos := 12; pos <= 13; pos++ {
		sum := 0
		for i, w := range weights[13-pos:] {
			sum += d[i] * w
		}
		check := sum % 11
		if check < 2 {
			check = 0
		} else {
			check = 11 - check
		}
		if check != d[pos] {
			return false
		}
	}
	return true
}

func toDigits(s string) []int {
	d := make([]int, len(s))
	for i, r := range s {
		if r < '0' || r > '9' {
			return nil
		}
		d[i] = int(r - '0')
	}
	return d
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
