package article

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind artikul shakli
type Kind int

const (
	KindCompound     Kind = iota // "3222 3390 07"
	KindAlphanumeric             // "RC1206JR-076R8L"
	KindSimple                   // "805015"
)

func (k Kind) String() string {
	switch k {
	case KindCompound:
		return "compound"
	case KindAlphanumeric:
		return "alphanumeric"
	case KindSimple:
		return "simple"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// DefaultMinSimpleDigits oddiy raqamli artikulning minimal uzunligi
const DefaultMinSimpleDigits = 5

// Query matndan topilgan bitta nomzod va uning kalitlari
type Query struct {
	Raw    string
	Kind   Kind
	Clean  string
	Spaced string
}

// Key so'rovning asosiy kaliti (dedup uchun)
func (q Query) Key() string {
	switch q.Kind {
	case KindCompound:
		return q.Spaced
	case KindAlphanumeric:
		return NormalizeArticle(q.Raw)
	}
	return q.Clean
}

// ExtractorConfig extractor sozlamalari
type ExtractorConfig struct {
	MinSimpleDigits int
	// AlnumRequireDigit faqat harflardan iborat so'zlarni ("Hello") tashlab yuboradi
	AlnumRequireDigit bool
}

// Extractor artikul qidirish siyosati: tartiblangan pattern sinflari va bostirish qoidasi
type Extractor struct {
	compound     *regexp.Regexp
	alnum        *regexp.Regexp
	simple       *regexp.Regexp
	requireDigit bool
}

var (
	reCompound = regexp.MustCompile(`\b\d{2,5}(?:[ \t\x{00A0}\x{2007}\x{202F}]+\d{2,5}){1,3}\b`)
	reAlnum    = regexp.MustCompile(`\b[A-Za-z][A-Za-z0-9]{4,}(?:-\d+[A-Za-z]\d+[A-Za-z0-9]*)?`)
	reHasDigit = regexp.MustCompile(`\d`)
)

// NewExtractor yangi Extractor yaratish
func NewExtractor(cfg ExtractorConfig) (*Extractor, error) {
	minDigits := cfg.MinSimpleDigits
	if minDigits == 0 {
		minDigits = DefaultMinSimpleDigits
	}
	if minDigits < 2 {
		return nil, fmt.Errorf("min simple digits must be >= 2, got %d", minDigits)
	}

	return &Extractor{
		compound:     reCompound,
		alnum:        reAlnum,
		simple:       regexp.MustCompile(fmt.Sprintf(`\b\d{%d,}\b`, minDigits)),
		requireDigit: cfg.AlnumRequireDigit,
	}, nil
}

// Extract matndan artikul nomzodlarini ajratish.
// Tartib: compound, alphanumeric, simple. Bo'sh natija xato emas.
func (e *Extractor) Extract(text string) []Query {
	var compounds, alnums, simples []Query

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		spans := e.compound.FindAllStringIndex(line, -1)
		for _, sp := range spans {
			raw := line[sp[0]:sp[1]]
			compounds = append(compounds, newQuery(raw, KindCompound))
		}

		for _, raw := range e.alnum.FindAllString(line, -1) {
			if e.requireDigit && !reHasDigit.MatchString(raw) {
				continue
			}
			alnums = append(alnums, newQuery(raw, KindAlphanumeric))
		}

		for _, sp := range e.simple.FindAllStringIndex(line, -1) {
			// compound ichidagi raqamlar alohida artikul emas
			if insideAny(sp, spans) {
				continue
			}
			simples = append(simples, newQuery(line[sp[0]:sp[1]], KindSimple))
		}
	}

	all := make([]Query, 0, len(compounds)+len(alnums)+len(simples))
	all = append(all, compounds...)
	all = append(all, alnums...)
	all = append(all, simples...)

	return dedupe(all)
}

// Candidates faqat topilgan satrlarni qaytaradi
func (e *Extractor) Candidates(text string) []string {
	queries := e.Extract(text)
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		out = append(out, q.Raw)
	}
	return out
}

func newQuery(raw string, kind Kind) Query {
	raw = strings.TrimSpace(raw)
	return Query{
		Raw:    raw,
		Kind:   kind,
		Clean:  NormalizeDigits(raw),
		Spaced: NormalizeSpaced(raw),
	}
}

func insideAny(span []int, spans [][]int) bool {
	for _, s := range spans {
		if span[0] >= s[0] && span[1] <= s[1] {
			return true
		}
	}
	return false
}

func dedupe(queries []Query) []Query {
	type dedupKey struct {
		kind Kind
		key  string
	}
	seen := make(map[dedupKey]struct{}, len(queries))
	out := queries[:0]
	for _, q := range queries {
		k := dedupKey{q.Kind, q.Key()}
		if k.key == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, q)
	}
	return out
}
