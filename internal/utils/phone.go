package utils

import "strings"

// NormalizePhone приводит ввод к E.164-виду: "+" и 7–15 цифр.
// Пробелы и дефисы внутри номера допускаем и вычищаем.
func NormalizePhone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '+' {
		return "", false
	}
	var b strings.Builder
	b.WriteByte('+')
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')':
			// разделители игнорируем
		default:
			return "", false
		}
	}
	digits := b.Len() - 1
	if digits < 7 || digits > 15 {
		return "", false
	}
	return b.String(), true
}

// LooksLikeCode — одноразовый код: 4–6 цифр.
func LooksLikeCode(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 4 || len(s) > 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
