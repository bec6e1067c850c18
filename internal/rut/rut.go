// Package rut validates Chilean RUT identifiers (national ID with a mod-11
// check digit).
package rut

import (
	"strconv"
	"strings"
)

// Valid reports whether the RUT is well formed and its check digit matches.
// Accepts "12345678-5", "12.345.678-5", and the bare "123456785" form;
// a lowercase k check digit is accepted.
func Valid(rut string) bool {
	rut = strings.ToUpper(rut)
	rut = strings.ReplaceAll(rut, ".", "")
	rut = strings.ReplaceAll(rut, "-", "")
	if len(rut) < 8 || len(rut) > 9 {
		return false
	}
	body, dv := rut[:len(rut)-1], rut[len(rut)-1:]
	for _, c := range body {
		if c < '0' || c > '9' {
			return false
		}
	}
	if dv != "K" && (dv < "0" || dv > "9") {
		return false
	}
	return dv == CheckDigit(body)
}

// CheckDigit computes the check digit for a RUT body ("12345678" -> "5").
// The weight cycles 2..7 from the least significant digit; remainder 1 maps
// to "K" and remainder 0 to "0".
func CheckDigit(body string) string {
	sum := 0
	factor := 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * factor
		if factor == 7 {
			factor = 2
		} else {
			factor++
		}
	}
	switch rem := sum % 11; rem {
	case 0:
		return "0"
	case 1:
		return "K"
	default:
		return strconv.Itoa(11 - rem)
	}
}

// Format renders a RUT body and check digit in the canonical "12345678-5" form.
func Format(body int32, dv string) string {
	return strconv.FormatInt(int64(body), 10) + "-" + strings.ToUpper(dv)
}

// Split separates a normalized RUT into its numeric body and check digit.
// Returns ok=false when the RUT is invalid.
func Split(rut string) (body int32, dv string, ok bool) {
	if !Valid(rut) {
		return 0, "", false
	}
	s := strings.ToUpper(rut)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "-", "")
	n, err := strconv.ParseInt(s[:len(s)-1], 10, 32)
	if err != nil {
		return 0, "", false
	}
	return int32(n), s[len(s)-1:], true
}
