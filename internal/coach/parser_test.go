package coach

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "tradecoach/internal/errors"
)

const fullReply = `Overall this was a disciplined trade undermined by late-session nerves.

TECHNICAL ANALYSIS:
- Price broke out of a two-week consolidation range on rising volume
- Entry: 101.20
• The stop sat just below the prior swing low, which is well placed
1. Exit came before the measured move target was reached
ok

PSYCHOLOGICAL ANALYSIS:
* Anxiety appears to have driven the early exit
* Mental clarity was reduced by the preceding losing streak

IMPROVEMENT SUGGESTIONS:
- Use a written exit plan and commit to it before entry
- Scale out in thirds instead of closing the whole position at once
- Take a short break after two consecutive losses
- Rehearse the trade plan aloud before the session opens
- Track heart rate or another stress marker during live trades
- Review recordings of your screen to spot hesitation patterns
- Limit the number of trades per session to protect focus

PATTERN RECOGNITION:
- Early exits cluster after losing trades in the same session
- Breakout entries perform better than pullback entries for you`

func TestParseSectionsFullReply(t *testing.T) {
	res := ParseSections(fullReply)

	if res.IsDegraded() {
		t.Fatalf("unexpected degraded sections: %v", res.Degraded)
	}
	wantTech := []string{
		"Price broke out of a two-week consolidation range on rising volume",
		"The stop sat just below the prior swing low, which is well placed",
		"Exit came before the measured move target was reached",
	}
	if strings.Join(res.Technical, "|") != strings.Join(wantTech, "|") {
		t.Errorf("Technical = %q", res.Technical)
	}
	if len(res.Psychological) != 2 {
		t.Errorf("Psychological = %q", res.Psychological)
	}
	if len(res.Suggestions) != maxPoints {
		t.Errorf("Suggestions should be capped at %d, got %d", maxPoints, len(res.Suggestions))
	}
	if len(res.Patterns) != 2 {
		t.Errorf("Patterns = %q", res.Patterns)
	}
	if res.Summary != "Overall this was a disciplined trade undermined by late-session nerves." {
		t.Errorf("Summary = %q", res.Summary)
	}
}

func TestParseSectionsMissingMarker(t *testing.T) {
	raw := strings.Replace(fullReply, MarkerPatterns, "PATTERNS SEEN", 1)
	res := ParseSections(raw)

	if len(res.Patterns) == 0 {
		t.Fatal("missing marker must fall back to a non-empty placeholder list")
	}
	if strings.Join(res.Patterns, "|") != strings.Join(placeholderPatterns, "|") {
		t.Errorf("Patterns = %q, want placeholder", res.Patterns)
	}
	if len(res.Degraded) != 1 || res.Degraded[0] != SectionPatterns {
		t.Errorf("Degraded = %v", res.Degraded)
	}
}

func TestParseSectionsOutOfOrder(t *testing.T) {
	raw := "PATTERN RECOGNITION:\n- Revenge trades follow every large loss\nTECHNICAL ANALYSIS:\n- Entry was late relative to the breakout candle"
	res := ParseSections(raw)
	if len(res.Patterns) != 1 || !strings.HasPrefix(res.Patterns[0], "Revenge trades") {
		t.Errorf("Patterns = %q", res.Patterns)
	}
	if len(res.Technical) != 1 || !strings.HasPrefix(res.Technical[0], "Entry was late") {
		t.Errorf("Technical = %q", res.Technical)
	}
}

func TestParseSectionsInlineBullets(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			"dashes",
			"- Price rejected the prior resistance twice - Volume dried up on the pullback",
			[]string{"Price rejected the prior resistance twice", "Volume dried up on the pullback"},
		},
		{
			"stars",
			"* Anxiety drove the early exit here * Fear of giving back gains took over",
			[]string{"Anxiety drove the early exit here", "Fear of giving back gains took over"},
		},
		{
			"numbers",
			"1. Write the exit plan before entry 2. Pause for ten minutes after a loss",
			[]string{"Write the exit plan before entry", "Pause for ten minutes after a loss"},
		},
		{
			"hyphens and decimals stay whole",
			"- Hold short-term swings with at least 1.5 reward to risk - Skip setups without volume",
			[]string{"Hold short-term swings with at least 1.5 reward to risk", "Skip setups without volume"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseSections(MarkerTechnical + " " + tt.body + "\n" + MarkerPatterns + "\n- Early exits cluster after losing trades")
			if strings.Join(res.Technical, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Technical = %q, want %q", res.Technical, tt.want)
			}
		})
	}
}

func TestParseSectionsGarbage(t *testing.T) {
	res := ParseSections("Sorry, I cannot help with that.")
	if len(res.Degraded) != 4 {
		t.Fatalf("all four sections should be degraded, got %v", res.Degraded)
	}
	for _, list := range [][]string{res.Technical, res.Psychological, res.Suggestions, res.Patterns} {
		if len(list) == 0 {
			t.Fatal("placeholder list must be non-empty")
		}
	}
}

func TestParseSectionsPlaceholderNotShared(t *testing.T) {
	res := ParseSections("")
	res.Patterns[0] = "mutated"
	if placeholderPatterns[0] == "mutated" {
		t.Fatal("placeholder slice was aliased")
	}
}

func TestParseSectionsPointProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	fragment := gen.OneConstOf(
		"short",
		"x",
		"Sub-header: with colon inside",
		"A perfectly ordinary observation about the trade",
		"•  bullet glyph followed by enough words",
		"Exactly10c",
		"Consider scaling out earlier • Hold the runner with a trailing stop",
	)

	properties.Property("points are long, colon-free and capped", prop.ForAll(
		func(tech, psych, sugg, pat []string) bool {
			raw := fmt.Sprintf("%s\n- %s\n%s\n* %s\n%s\n1. %s\n%s\n- %s",
				MarkerTechnical, strings.Join(tech, "\n- "),
				MarkerPsychological, strings.Join(psych, "\n* "),
				MarkerSuggestions, strings.Join(sugg, "\n1. "),
				MarkerPatterns, strings.Join(pat, "\n- "))
			res := ParseSections(raw)
			for _, list := range [][]string{res.Technical, res.Psychological, res.Suggestions, res.Patterns} {
				if len(list) == 0 || len(list) > maxPoints {
					return false
				}
			}
			check := func(name string, list []string) bool {
				for _, d := range res.Degraded {
					if d == name {
						return true
					}
				}
				for _, p := range list {
					if utf8.RuneCountInString(p) <= minPointLength || strings.Contains(p, ":") {
						return false
					}
				}
				return true
			}
			return check(SectionTechnical, res.Technical) &&
				check(SectionPsychological, res.Psychological) &&
				check(SectionSuggestions, res.Suggestions) &&
				check(SectionPatterns, res.Patterns)
		},
		gen.SliceOfN(9, fragment),
		gen.SliceOfN(3, fragment),
		gen.SliceOfN(7, fragment),
		gen.SliceOfN(1, fragment),
	))

	properties.TestingRun(t)
}

func TestParseStructured(t *testing.T) {
	raw := "```json\n" + `{
  "technical_analysis": ["Breakout confirmed by volume expansion", "ok"],
  "psychological_analysis": ["Fear of giving back profits drove the exit: classic"],
  "improvement_suggestions": [],
  "pattern_recognition": ["Exits tighten after two consecutive wins"],
  "summary": "Solid entry, emotional exit."
}` + "\n```"

	res, err := ParseStructured(raw)
	if err != nil {
		t.Fatalf("ParseStructured() error = %v", err)
	}
	if len(res.Technical) != 1 {
		t.Errorf("Technical = %q", res.Technical)
	}
	if len(res.Psychological) != 1 {
		t.Errorf("colons are allowed in structured replies, got %q", res.Psychological)
	}
	if len(res.Degraded) != 1 || res.Degraded[0] != SectionSuggestions {
		t.Errorf("Degraded = %v", res.Degraded)
	}
	if res.Summary != "Solid entry, emotional exit." {
		t.Errorf("Summary = %q", res.Summary)
	}
}

func TestParseStructuredInvalid(t *testing.T) {
	for _, raw := range []string{"TECHNICAL ANALYSIS:\n- not json at all", `["an", "array"]`, `{"technical_analysis": [`} {
		if _, err := ParseStructured(raw); !apperrors.Is(err, apperrors.ErrInvalidJSON) {
			t.Errorf("ParseStructured(%q) error = %v, want ErrInvalidJSON", raw, err)
		}
	}
}
