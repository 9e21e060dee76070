package report

import "regexp"

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ExtractJSON pulls the report out of a model reply. If the reply holds a
// ```json fenced block, the fenced text is returned; otherwise the reply is
// returned unchanged. This is a heuristic: the result is not parsed and may
// not be valid JSON.
func ExtractJSON(reply string) string {
	m := fencedJSON.FindStringSubmatch(reply)
	if len(m) < 2 || m[1] == "" {
		return reply
	}
	return m[1]
}
