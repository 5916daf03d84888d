package debate

import (
	"fmt"
	"regexp"
	"strconv"
)

var intPattern = regexp.MustCompile(`\d+`)

// ExtractScore pulls the total score out of a scorer's answer. The scoring
// prompt asks for the value at the end of the response, so the LAST integer
// in the text wins; earlier numbers such as per-standard points are ignored.
func ExtractScore(text string) (int, error) {
	matches := intPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("no score found in answer: %q", text)
	}
	return strconv.Atoi(matches[len(matches)-1])
}
