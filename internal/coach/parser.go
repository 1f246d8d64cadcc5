package coach

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	apperrors "tradecoach/internal/errors"
)

// Section names recorded in ParseResult.Degraded.
const (
	SectionTechnical     = "technical_analysis"
	SectionPsychological = "psychological_analysis"
	SectionSuggestions   = "improvement_suggestions"
	SectionPatterns      = "pattern_recognition"
)

const (
	maxPoints      = 6
	minPointLength = 10
)

var (
	placeholderTechnical = []string{
		"Chart reviewed, but no specific technical observations were returned for this trade.",
		"Compare the entry and exit against your plan's criteria for this setup.",
	}
	placeholderPsychological = []string{
		"Your emotional state was considered in the context of this trade.",
		"Note how your feelings changed between entry and exit in your journal.",
	}
	placeholderSuggestions = []string{
		"Continue journaling each trade together with your emotional state.",
		"Review this trade again once you have a few similar setups to compare.",
	}
	placeholderPatterns = []string{
		"More journaled trades are needed to identify reliable behavioral patterns.",
	}
)

type section struct {
	name        string
	marker      string
	placeholder []string
}

var sections = []section{
	{SectionTechnical, MarkerTechnical, placeholderTechnical},
	{SectionPsychological, MarkerPsychological, placeholderPsychological},
	{SectionSuggestions, MarkerSuggestions, placeholderSuggestions},
	{SectionPatterns, MarkerPatterns, placeholderPatterns},
}

// ParseResult holds the four extracted lists. Degraded names every section that
// yielded no usable points and was filled with its placeholder list.
type ParseResult struct {
	Technical     []string
	Psychological []string
	Suggestions   []string
	Patterns      []string
	Summary       string
	Degraded      []string
}

// IsDegraded reports whether any section fell back to its placeholder.
func (r ParseResult) IsDegraded() bool {
	return len(r.Degraded) > 0
}

func (r *ParseResult) set(name string, points []string) {
	switch name {
	case SectionTechnical:
		r.Technical = points
	case SectionPsychological:
		r.Psychological = points
	case SectionSuggestions:
		r.Suggestions = points
	case SectionPatterns:
		r.Patterns = points
	}
}

// ParseSections splits a free-text reply on the four section markers.
func ParseSections(raw string) ParseResult {
	var res ParseResult
	for _, s := range sections {
		points := cleanPoints(splitPoints(sectionText(raw, s.marker)), true)
		if len(points) == 0 {
			points = append([]string(nil), s.placeholder...)
			res.Degraded = append(res.Degraded, s.name)
		}
		res.set(s.name, points)
	}
	res.Summary = preamble(raw)
	return res
}

// sectionText returns the text between marker and the nearest other marker
// after it, or the end of raw. It returns "" when the marker is absent.
func sectionText(raw, marker string) string {
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return ""
	}
	body := raw[idx+len(marker):]
	end := len(body)
	for _, s := range sections {
		if s.marker == marker {
			continue
		}
		if j := strings.Index(body, s.marker); j >= 0 && j < end {
			end = j
		}
	}
	return body[:end]
}

var (
	bulletPrefix = regexp.MustCompile(`^\s*(?:[-•*]+|\d+[.)])\s*`)
	// Inline bullets need whitespace on both sides so "short-term" and "1.5" stay whole.
	inlineBullet = regexp.MustCompile(`\s+(?:[-•*]|\d+[.)])\s+`)
)

func splitPoints(text string) []string {
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		for _, frag := range inlineBullet.Split(ln, -1) {
			out = append(out, bulletPrefix.ReplaceAllString(frag, ""))
		}
	}
	return out
}

// cleanPoints trims fragments, drops short ones and, for free text, any
// containing a colon, then caps the list.
func cleanPoints(frags []string, dropColons bool) []string {
	var out []string
	for _, f := range frags {
		f = strings.TrimSpace(strings.Trim(strings.TrimSpace(f), "*"))
		if utf8.RuneCountInString(f) <= minPointLength {
			continue
		}
		if dropColons && strings.Contains(f, ":") {
			continue
		}
		out = append(out, f)
		if len(out) == maxPoints {
			break
		}
	}
	return out
}

// preamble returns the first paragraph before any marker, used as the summary.
func preamble(raw string) string {
	end := len(raw)
	for _, s := range sections {
		if j := strings.Index(raw, s.marker); j >= 0 && j < end {
			end = j
		}
	}
	text := strings.TrimSpace(raw[:end])
	if i := strings.Index(text, "\n\n"); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= minPointLength {
		return ""
	}
	return text
}

var codeFence = regexp.MustCompile("(?s)^\\s*```(?:json)?\\s*(.*?)\\s*```\\s*$")

// ParseStructured reads a JSON object reply. It returns ErrInvalidJSON when raw
// is not a JSON object, in which case callers should use ParseSections.
func ParseStructured(raw string) (ParseResult, error) {
	body := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(body); m != nil {
		body = m[1]
	}
	if !gjson.Valid(body) {
		return ParseResult{}, apperrors.ErrInvalidJSON
	}
	doc := gjson.Parse(body)
	if !doc.IsObject() {
		return ParseResult{}, apperrors.Wrap(apperrors.ErrInvalidJSON, "reply is not an object")
	}

	var res ParseResult
	for _, s := range sections {
		var frags []string
		doc.Get(s.name).ForEach(func(_, v gjson.Result) bool {
			if v.Type == gjson.String {
				frags = append(frags, v.String())
			}
			return true
		})
		points := cleanPoints(frags, false)
		if len(points) == 0 {
			points = append([]string(nil), s.placeholder...)
			res.Degraded = append(res.Degraded, s.name)
		}
		res.set(s.name, points)
	}
	res.Summary = strings.TrimSpace(doc.Get("summary").String())
	return res, nil
}
