package directions

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/paulmach/orb"
)

// GeometryKind tags the shape a geometry value was decoded from.
type GeometryKind int

const (
	KindUnrecognized GeometryKind = iota
	KindLineString
	KindFeature
	KindCoordinateArray
	KindCoordinatesObject
)

func (k GeometryKind) String() string {
	switch k {
	case KindLineString:
		return "LineString"
	case KindFeature:
		return "Feature"
	case KindCoordinateArray:
		return "coordinates array"
	case KindCoordinatesObject:
		return "coordinates object"
	default:
		return "unrecognized"
	}
}

// Geometry is a decoded geometry value. Line holds [lon, lat] points; it is empty for
// unrecognized shapes.
type Geometry struct {
	Kind GeometryKind
	Line orb.LineString
}

// geometryObject covers the object shapes the routes API embeds.
type geometryObject struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometry    json.RawMessage `json:"geometry"`
}

// maxStringNesting bounds how many times a JSON string is unwrapped as encoded JSON.
const maxStringNesting = 1

// DecodeGeometry decodes one geometry value. Accepted shapes: a JSON-encoded string of
// any other shape, a GeoJSON LineString, a Feature wrapping a LineString, a bare array
// of [lon, lat] pairs, or an object carrying a coordinates array. Anything else decodes
// to an empty KindUnrecognized geometry.
func DecodeGeometry(raw json.RawMessage) Geometry {
	return decodeGeometry(raw, 0)
}

func decodeGeometry(raw json.RawMessage, nesting int) Geometry {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Geometry{}
	}

	switch raw[0] {
	case '"':
		if nesting >= maxStringNesting {
			return Geometry{}
		}
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return Geometry{}
		}
		return decodeGeometry(json.RawMessage(encoded), nesting+1)
	case '[':
		return Geometry{Kind: KindCoordinateArray, Line: decodeLine(raw)}
	case '{':
		var obj geometryObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return Geometry{}
		}
		switch {
		case obj.Type == "Feature":
			inner := decodeGeometry(obj.Geometry, nesting)
			if len(inner.Line) == 0 {
				return Geometry{}
			}
			return Geometry{Kind: KindFeature, Line: inner.Line}
		case obj.Type == "LineString":
			return Geometry{Kind: KindLineString, Line: decodeLine(obj.Coordinates)}
		case len(obj.Coordinates) > 0:
			return Geometry{Kind: KindCoordinatesObject, Line: decodeLine(obj.Coordinates)}
		}
	}

	return Geometry{}
}

// decodeLine keeps entries that are exactly two non-NaN numbers, in order.
func decodeLine(raw json.RawMessage) orb.LineString {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	line := make(orb.LineString, 0, len(entries))
	for _, entry := range entries {
		var pair []*float64
		if err := json.Unmarshal(entry, &pair); err != nil {
			continue
		}
		if len(pair) != 2 || pair[0] == nil || pair[1] == nil {
			continue
		}
		if math.IsNaN(*pair[0]) || math.IsNaN(*pair[1]) {
			continue
		}
		line = append(line, orb.Point{*pair[0], *pair[1]})
	}

	return line
}

// ToAlternative swaps a [lon, lat] line into lat-first coordinates.
func ToAlternative(line orb.LineString) models.Alternative {
	alt := make(models.Alternative, 0, len(line))
	for _, pt := range line {
		alt = append(alt, models.Coordinate{Latitude: pt.Lat(), Longitude: pt.Lon()})
	}
	return alt
}

type responseBody struct {
	Geometry     json.RawMessage   `json:"geometry"`
	Alternatives []json.RawMessage `json:"alternatives"`
}

type alternativeBody struct {
	Segments []struct {
		Geometry json.RawMessage `json:"geometry"`
	} `json:"segments"`
	Geometry json.RawMessage `json:"geometry"`
}

// Normalize extracts every renderable polyline from a routes API response: the primary
// geometry first, then each alternative in order. Multi-segment alternatives are
// concatenated in segment order. Malformed input yields an empty result, never an error.
func Normalize(body json.RawMessage) []models.Alternative {
	var response responseBody
	if err := json.Unmarshal(body, &response); err != nil {
		response = lenientResponse(body)
	}

	var routes []models.Alternative

	if primary := DecodeGeometry(response.Geometry); len(primary.Line) > 0 {
		routes = append(routes, ToAlternative(primary.Line))
	}

	for _, rawAlt := range response.Alternatives {
		if line := alternativeLine(rawAlt); len(line) > 0 {
			routes = append(routes, ToAlternative(line))
		}
	}

	return routes
}

// lenientResponse recovers the primary geometry when the alternatives field has an
// unexpected type and breaks strict decoding.
func lenientResponse(body json.RawMessage) responseBody {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return responseBody{}
	}

	response := responseBody{Geometry: fields["geometry"]}
	_ = json.Unmarshal(fields["alternatives"], &response.Alternatives)

	return response
}

func alternativeLine(raw json.RawMessage) orb.LineString {
	var alt alternativeBody
	if err := json.Unmarshal(raw, &alt); err != nil {
		return DecodeGeometry(raw).Line
	}

	var line orb.LineString
	for _, segment := range alt.Segments {
		line = append(line, DecodeGeometry(segment.Geometry).Line...)
	}
	if len(line) > 0 {
		return line
	}

	return DecodeGeometry(alt.Geometry).Line
}

// DirectLine is the two-point stand-in used when no real route is available.
func DirectLine(origin, destination models.Coordinate) models.Alternative {
	return models.Alternative{
		{Latitude: origin.Latitude, Longitude: origin.Longitude},
		{Latitude: destination.Latitude, Longitude: destination.Longitude},
	}
}

// WithFallback returns routes unchanged when non-empty, otherwise the direct line.
// The boolean reports whether the fallback was used.
func WithFallback(routes []models.Alternative, origin, destination models.Coordinate) ([]models.Alternative, bool) {
	if len(routes) > 0 {
		return routes, false
	}
	return []models.Alternative{DirectLine(origin, destination)}, true
}
