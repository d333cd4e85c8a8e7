// Package article artikullarni matndan ajratish va solishtirish uchun normalizatsiya.
package article

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Excel raqam sifatida o'qigan katakchalar "805015.0" bo'lib keladi
const floatArtifact = ".0"

var spaceReplacer = strings.NewReplacer(
	"\u00a0", " ", // no-break space
	"\u2007", " ", // figure space
	"\u202f", " ", // narrow no-break space
)

// NormalizeDigits faqat raqamlardan iborat kalit
func NormalizeDigits(text string) string {
	s, ok := prepare(text)
	if !ok {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

// NormalizeSpaced raqam guruhlari bitta probel bilan ajratilgan kalit
func NormalizeSpaced(text string) string {
	s, ok := prepare(text)
	if !ok {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}
	return strings.ToLower(strings.Join(strings.Fields(b.String()), " "))
}

// NormalizeArticle harf-raqamli artikul uchun kalit ("RC1206JR-076R8L" -> "rc1206jr076r8l")
func NormalizeArticle(text string) string {
	s, ok := prepare(text)
	if !ok {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

func prepare(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if isNullLike(s) {
		return "", false
	}
	s = norm.NFKC.String(spaceReplacer.Replace(s))
	s = strings.TrimSuffix(s, floatArtifact)
	return s, true
}

func isNullLike(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null", "<nil>":
		return true
	}
	return false
}
