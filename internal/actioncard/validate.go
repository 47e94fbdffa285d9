package actioncard

import (
	"fmt"
	"strings"
	"unicode"
)

// Validation rules for generated guidance text. Guidance must read as
// short, certain, imperative Korean; anything hedged, decorated, or
// structured as a list is rejected and regenerated.
const (
	minSentences = 3
	maxSentences = 5
	minLength    = 30
)

// hedgingTerms mark speculative phrasing that has no place in an
// emergency instruction.
var hedgingTerms = []string{
	"추측",
	"할 수도",
	"아마",
	"생각합니다",
	"가능성",
	"것 같",
}

// imperativeEndings are the sentence closers that mark a direct
// instruction.
var imperativeEndings = []string{
	"세요",
	"십시오",
	"시오",
	"하라",
	"마라",
	"금지",
}

// unitTokens are the only Latin-script tokens allowed inside guidance.
var unitTokens = map[string]struct{}{
	"km":   {},
	"m":    {},
	"kg":   {},
	"mm":   {},
	"cm":   {},
	"km/h": {},
}

var bulletMarkers = []string{"- ", "* ", "• "}

// hasListMarker reports whether a line opens as a bulleted or numbered
// list item. A leading decimal quantity such as "1.2km" is not a marker:
// the dot must not be followed by another digit.
func hasListMarker(line string) bool {
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	runes := []rune(line)
	i := 0
	for i < len(runes) && unicode.IsDigit(runes[i]) {
		i++
	}
	if i == 0 || i >= len(runes) {
		return false
	}
	switch runes[i] {
	case ')':
		return true
	case '.':
		return i+1 >= len(runes) || !unicode.IsDigit(runes[i+1])
	}
	return false
}

// Validate checks one candidate guidance text. A nil return means the
// text is safe to deliver as-is.
func Validate(text string) error {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < minLength {
		return fmt.Errorf("guidance too short: %d chars", len([]rune(trimmed)))
	}

	for _, term := range hedgingTerms {
		if strings.Contains(trimmed, term) {
			return fmt.Errorf("hedging phrase %q not allowed", term)
		}
	}

	for _, line := range strings.Split(trimmed, "\n") {
		if hasListMarker(strings.TrimSpace(line)) {
			return fmt.Errorf("list formatting not allowed")
		}
	}

	if r, found := firstEmoji(trimmed); found {
		return fmt.Errorf("emoji %q not allowed", r)
	}

	if tok, ok := firstForeignToken(trimmed); ok {
		return fmt.Errorf("non-Korean token %q not allowed", tok)
	}

	sentences := splitSentences(trimmed)
	if n := len(sentences); n < minSentences || n > maxSentences {
		return fmt.Errorf("expected %d to %d sentences, got %d", minSentences, maxSentences, n)
	}

	imperative := false
	for _, s := range sentences {
		body := strings.TrimRight(strings.TrimSpace(s), ".!?")
		for _, ending := range imperativeEndings {
			if strings.HasSuffix(body, ending) {
				imperative = true
				break
			}
		}
		if imperative {
			break
		}
	}
	if !imperative {
		return fmt.Errorf("no imperative sentence found")
	}
	return nil
}

// splitSentences cuts on terminal punctuation while keeping decimal
// points ("1.2km") inside their number.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i, r := range runes {
		switch r {
		case '.':
			prevDigit := i > 0 && unicode.IsDigit(runes[i-1])
			nextDigit := i+1 < len(runes) && unicode.IsDigit(runes[i+1])
			if prevDigit && nextDigit {
				continue
			}
			fallthrough
		case '!', '?':
			s := strings.TrimSpace(string(runes[start : i+1]))
			if s != "" && s != "." && s != "!" && s != "?" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func firstEmoji(text string) (rune, bool) {
	for _, r := range text {
		if unicode.Is(unicode.So, r) || (r >= 0x1F300 && r <= 0x1FAFF) || (r >= 0x2600 && r <= 0x27BF) {
			return r, true
		}
	}
	return 0, false
}

// firstForeignToken scans for runs of Latin letters and rejects any that
// is not a recognized unit abbreviation.
func firstForeignToken(text string) (string, bool) {
	var token strings.Builder
	flush := func() (string, bool) {
		if token.Len() == 0 {
			return "", false
		}
		tok := strings.ToLower(token.String())
		token.Reset()
		if _, ok := unitTokens[tok]; !ok {
			return tok, true
		}
		return "", false
	}
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r == '/' && token.Len() > 0) {
			token.WriteRune(r)
			continue
		}
		if tok, bad := flush(); bad {
			return tok, true
		}
	}
	return flush()
}
