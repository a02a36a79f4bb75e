package tutor

import "strings"

// Level is the learner's difficulty setting.
type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
)

// Levels lists the selectable levels in display order.
var Levels = []Level{Beginner, Intermediate, Advanced}

const (
	beginnerTone = "The learner is a beginner. Use plain words, avoid jargon, " +
		"and define any technical term you cannot avoid."
	intermediateTone = "The learner knows the basics. Use the correct terminology " +
		"and connect the ideas to how they are used in practice."
	advancedTone = "The learner is advanced. Be precise and technical, and point out " +
		"trade-offs, limitations and open problems."
)

// ToneFor picks the audience instruction for a level. Matching is by
// substring: anything containing "begin" is beginner, then anything
// containing "inter" is intermediate, everything else is advanced.
func ToneFor(level string) string {
	switch {
	case strings.Contains(level, "begin"):
		return beginnerTone
	case strings.Contains(level, "inter"):
		return intermediateTone
	default:
		return advancedTone
	}
}
