package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// viaTokenRe locates a Spanish via-type token (street, avenue, square,
	// promenade, road...) inside a free-form street value. Everything before
	// the token is leading noise from the upstream parser and is dropped,
	// e.g. "AFECTADOS: Calle Mayor" -> "Calle Mayor".
	viaTokenRe = regexp.MustCompile(`(?i)(Cl|C/|Calle|Avda?|Av\.?|Paseo|Ps\.?|Plaza|Pl\.?|Ctra|Ronda|Camino|Cmno|Pza\.?)\s+.+$`)

	// Tails accidentally concatenated onto street numbers by the PDF parser:
	// a city name, a date, a time, or the start of the next address segment.
	cityTailRe    = regexp.MustCompile(`(?i)madrid.*$`)
	dateTailRe    = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}.*$`)
	timeTailRe    = regexp.MustCompile(`\d{2}:\d{2}.*$`)
	segmentTailRe = regexp.MustCompile(`(?i)cl[a-záéíóúüñ]+:?\d+[a-z]?$`)
	nonAlnumRe    = regexp.MustCompile(`[^0-9A-Za-z]`)
	leadNumberRe  = regexp.MustCompile(`^(\d+[A-Za-z]{0,2})`)

	// numberMarkerRe finds a street number after a marker like "nº", "n°",
	// "num." or "numero" in free text. The text before the marker is the
	// street name candidate.
	numberMarkerRe = regexp.MustCompile(`(?i)\b(nº|n°|num\.?|numero)\s*[:\-]?\s*(\d+[A-Za-z]?)`)

	accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// CollapseWhitespace trims and squeezes runs of whitespace to single spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// StripAccents removes combining marks: "Chamberí" -> "Chamberi".
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// CleanStreet normalizes a street value. Whitespace is collapsed; if the
// string contains a recognizable via-type token, the result starts at that
// token so upstream prefixes are discarded.
func CleanStreet(v string) string {
	s := CollapseWhitespace(v)
	if s == "" {
		return ""
	}
	if loc := viaTokenRe.FindStringSubmatchIndex(s); loc != nil {
		return s[loc[2]:]
	}
	return s
}

// CleanNumber normalizes a street-number value down to a leading run of
// digits plus at most two trailing letters ("12", "4B", "22bis" -> "22bi").
// Ordinal marks and fragments of a concatenated city, date, time, or next
// address segment are stripped first. Returns "" when nothing survives.
func CleanNumber(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.NewReplacer("º", "", "ª", "").Replace(s)
	s = cityTailRe.ReplaceAllString(s, "")
	s = dateTailRe.ReplaceAllString(s, "")
	s = timeTailRe.ReplaceAllString(s, "")
	s = segmentTailRe.ReplaceAllString(s, "")
	s = nonAlnumRe.ReplaceAllString(s, "")
	m := leadNumberRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractStreetNumber pulls (street, number) out of free text using the
// number-marker heuristic: "Corte en Calle Goya nº 12 por obras" ->
// ("Corte en Calle Goya", "12"). Either result may be empty. Callers use it
// to fill fields that are otherwise empty, never to overwrite structured
// data.
func ExtractStreetNumber(text string) (street, number string) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", ""
	}
	loc := numberMarkerRe.FindStringSubmatchIndex(t)
	if loc == nil {
		return "", ""
	}
	number = t[loc[4]:loc[5]]
	head := strings.Trim(t[:loc[0]], " .,:;")
	street = CollapseWhitespace(head)
	return street, number
}

// Linking words that stay lowercase when title-casing a street name.
var lowercaseLinkWords = map[string]bool{
	"de": true, "del": true, "la": true, "las": true, "los": true,
	"el": true, "y": true, "en": true, "a": true,
}

// Leading abbreviation expansions applied to reverse-geocoded street names.
var streetPrefixExpansions = map[string]string{
	"avda": "Avenida", "avda.": "Avenida", "av": "Avenida", "av.": "Avenida",
	"pº": "Paseo", "ps": "Paseo", "ps.": "Paseo",
}

// NormalizeReverseStreet tidies a street name returned by the reverse
// geocoding provider: title-case except linking words, with known leading
// avenue/promenade abbreviations expanded.
func NormalizeReverseStreet(v string) string {
	s := CollapseWhitespace(v)
	if s == "" {
		return ""
	}
	words := strings.Split(s, " ")
	for i, w := range words {
		lw := strings.ToLower(w)
		if i == 0 {
			if full, ok := streetPrefixExpansions[lw]; ok {
				words[i] = full
				continue
			}
		}
		if i > 0 && lowercaseLinkWords[lw] {
			words[i] = lw
			continue
		}
		words[i] = titleWord(lw)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	r := []rune(w)
	if len(r) == 0 {
		return w
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
