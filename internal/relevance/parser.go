package relevance

import (
	"regexp"
	"strconv"
	"strings"
)

// assessmentRe matches a real number immediately followed by a decision
// keyword, tolerating punctuation and markdown between them.
var assessmentRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?|\.\d+)[\s*_\x60.,:;()\[\]'"-]*(RELEVANT|SKIP)\b`)

// parseAssessment scans raw oracle output for score/decision pairs and
// returns the last one found, tolerating preamble or reasoning text
// before the final verdict. ok is false when no pair exists or the
// number falls outside [0,1]; callers must then fall back to the safe
// default of (not relevant, 0.0).
func parseAssessment(raw string) (score float64, relevant bool, ok bool) {
	matches := assessmentRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return 0, false, false
	}

	m := matches[len(matches)-1]
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil || score < 0 || score > 1 {
		return 0, false, false
	}

	return score, strings.EqualFold(m[2], "RELEVANT"), true
}
