package markers

import "strings"

// Marker is a map pin. Annotations at identical coordinates share one marker
// that lists every distinct placename in first-seen order.
type Marker struct {
	Placenames []string `json:"placenames"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
}

// Label joins the marker's placenames for display.
func (m Marker) Label() string {
	return strings.Join(m.Placenames, ", ")
}

type coordinate struct {
	lat, lon float64
}

// Merge aggregates annotations into markers keyed by latitude and longitude.
// Markers are ordered by the first annotation at each coordinate.
func Merge(annotations []Annotation) []Marker {
	var out []Marker
	index := make(map[coordinate]int)

	for _, a := range annotations {
		key := coordinate{a.Latitude, a.Longitude}
		label := a.Label()

		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, Marker{
				Placenames: []string{label},
				Latitude:   a.Latitude,
				Longitude:  a.Longitude,
			})
			continue
		}
		if !contains(out[i].Placenames, label) {
			out[i].Placenames = append(out[i].Placenames, label)
		}
	}
	return out
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
