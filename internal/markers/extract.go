package markers

import (
	"html"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/ScripturesMapped/internal/logging"
)

const (
	callPrefix  = "showLocation("
	onclickAttr = "onclick"
)

// anchorQuery selects the annotated anchors in a chapter payload.
const anchorQuery = `//a[starts-with(@onclick,"showLocation(")]`

// Extract returns the annotations found in a chapter payload, in document
// order. Well-formed payloads are queried with XPath; anything the XML parser
// rejects (chapter HTML often carries bare entities or unclosed tags) is
// scanned as text instead. Calls that fail to parse are skipped.
func Extract(payload string) []Annotation {
	calls, err := queryAnchors(payload)
	if err != nil {
		logging.Debug("markers: falling back to text scan", "error", err)
		calls = scanCalls(payload)
	}

	out := make([]Annotation, 0, len(calls))
	for _, call := range calls {
		a, err := ParseAnnotation(call)
		if err != nil {
			logging.Debug("markers: skipping annotation", "error", err)
			continue
		}
		out = append(out, a)
	}
	return out
}

// Markers extracts the payload's annotations and merges them by coordinate.
func Markers(payload string) []Marker {
	return Merge(Extract(payload))
}

func queryAnchors(payload string) ([]string, error) {
	doc, err := xmlquery.Parse(strings.NewReader("<root>" + payload + "</root>"))
	if err != nil {
		return nil, err
	}
	nodes, err := xmlquery.QueryAll(doc, anchorQuery)
	if err != nil {
		return nil, err
	}

	calls := make([]string, 0, len(nodes))
	for _, n := range nodes {
		calls = append(calls, n.SelectAttr("onclick"))
	}
	return calls, nil
}

// scanCalls finds the onclick attribute values in raw markup that start with
// a showLocation call, decoded the way the XML path decodes them. Call text
// outside an onclick attribute is ignored.
func scanCalls(payload string) []string {
	var calls []string
	rest := payload
	for {
		i := strings.Index(rest, onclickAttr)
		if i < 0 {
			return calls
		}
		rest = rest[i+len(onclickAttr):]

		value, tail, ok := attrValue(rest)
		if !ok {
			continue
		}
		rest = tail
		if value = html.UnescapeString(value); strings.HasPrefix(value, callPrefix) {
			calls = append(calls, value)
		}
	}
}

// attrValue reads `= "value"` or `= 'value'` from the start of s, returning
// the raw value and the text after the closing quote.
func attrValue(s string) (value, tail string, ok bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(s, "=") {
		return "", s, false
	}
	s = strings.TrimLeft(s[1:], " \t\r\n")
	if s == "" || (s[0] != '"' && s[0] != '\'') {
		return "", s, false
	}
	end := strings.IndexByte(s[1:], s[0])
	if end < 0 {
		return "", s, false
	}
	return s[1 : end+1], s[end+2:], true
}
