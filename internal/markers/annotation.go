// Package markers extracts map locations from chapter content and merges
// them into map markers.
package markers

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Annotation is one parsed showLocation(...) call.
type Annotation struct {
	ID            string
	Placename     string
	Latitude      float64
	Longitude     float64
	ViewLatitude  float64
	ViewLongitude float64
	ViewTilt      float64
	ViewRoll      float64
	ViewAltitude  float64
	ViewHeading   float64
	Flag          string
}

// Label is the placename with the flag appended when one is present.
func (a Annotation) Label() string {
	if a.Flag == "" {
		return a.Placename
	}
	return a.Placename + " " + a.Flag
}

// annotationGrammar matches
//
//	showLocation(id,'placename',lat,lon,viewLat,viewLon,tilt,roll,alt,heading,'flag')
//
//nolint:govet // participle grammar tags are not standard struct tags
type annotationGrammar struct {
	ID            string  `"showLocation" "(" @(Number | Ident)`
	Placename     string  `"," @String`
	Latitude      float64 `"," @Number`
	Longitude     float64 `"," @Number`
	ViewLatitude  float64 `"," @Number`
	ViewLongitude float64 `"," @Number`
	ViewTilt      float64 `"," @Number`
	ViewRoll      float64 `"," @Number`
	ViewAltitude  float64 `"," @Number`
	ViewHeading   float64 `"," @Number`
	Flag          string  `"," @String ")" ";"?`
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(\\.|[^'\\])*'`},
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[(),;]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var annotationParser = participle.MustBuild[annotationGrammar](
	participle.Lexer(annotationLexer),
	participle.Elide("Whitespace"),
)

// ParseAnnotation parses a showLocation(...) call, typically the value of an
// anchor's onclick attribute.
func ParseAnnotation(s string) (Annotation, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Annotation{}, fmt.Errorf("empty annotation")
	}

	parsed, err := annotationParser.ParseString("", s)
	if err != nil {
		return Annotation{}, fmt.Errorf("invalid annotation %q: %w", s, err)
	}

	return Annotation{
		ID:            parsed.ID,
		Placename:     unquote(parsed.Placename),
		Latitude:      parsed.Latitude,
		Longitude:     parsed.Longitude,
		ViewLatitude:  parsed.ViewLatitude,
		ViewLongitude: parsed.ViewLongitude,
		ViewTilt:      parsed.ViewTilt,
		ViewRoll:      parsed.ViewRoll,
		ViewAltitude:  parsed.ViewAltitude,
		ViewHeading:   parsed.ViewHeading,
		Flag:          unquote(parsed.Flag),
	}, nil
}

// unquote strips the single quotes from a String token and resolves
// backslash escapes.
func unquote(tok string) string {
	if len(tok) >= 2 && tok[0] == '\'' && tok[len(tok)-1] == '\'' {
		tok = tok[1 : len(tok)-1]
	}
	if !strings.Contains(tok, `\`) {
		return tok
	}

	var sb strings.Builder
	for i := 0; i < len(tok); i++ {
		if tok[i] == '\\' && i+1 < len(tok) {
			i++
		}
		sb.WriteByte(tok[i])
	}
	return sb.String()
}
