package parser

import (
	"regexp"
)

// Prefilter narrows document text to the section between a start marker and
// an end marker. The end marker itself is kept.
type Prefilter struct {
	Start *regexp.Regexp
	End   *regexp.Regexp
}

// DefaultPrefilter bounds a Schedule 13G from its heading to its signature block
var DefaultPrefilter = Prefilter{
	Start: regexp.MustCompile(`(?i)schedule\s+13g`),
	End:   regexp.MustCompile(`(?i)signature`),
}

// Apply returns the text from the first start match through the first end
// match after it. If either marker is missing the text is returned unchanged.
func (p Prefilter) Apply(text string) string {
	if p.Start == nil || p.End == nil {
		return text
	}
	start := p.Start.FindStringIndex(text)
	if start == nil {
		return text
	}
	end := p.End.FindStringIndex(text[start[1]:])
	if end == nil {
		return text
	}
	return text[start[0] : start[1]+end[1]]
}
