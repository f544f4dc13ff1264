package world

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
)

// Loaders turn point datasets into registry items. Each point becomes a
// clusterable item with a small square rect centered on the coordinate.

// DefaultMarkerSize is the world-space edge length given to loaded points.
const DefaultMarkerSize = 1.0

func markerRect(p Point, size float64) Rect {
	h := size / 2
	return Rect{MinX: p.X - h, MinY: p.Y - h, MaxX: p.X + h, MaxY: p.Y + h}
}

// ItemsFromPoints builds clusterable items from raw coordinates, assigning
// fresh ids from the registry.
func ItemsFromPoints(r *Registry, pts []Point, glyph rune, size float64) []Item {
	if size <= 0 {
		size = DefaultMarkerSize
	}
	items := make([]Item, 0, len(pts))
	for _, p := range pts {
		if !p.IsFinite() {
			continue
		}
		items = append(items, Item{
			ID:          r.NextID(),
			Rect:        markerRect(p, size),
			Payload:     GlyphPayload(glyph),
			Clusterable: true,
		})
	}
	return items
}

// LoadGeoJSON extracts point coordinates from a GeoJSON file.
// Supports: Point, MultiPoint, Feature, FeatureCollection of Points/MultiPoints.
func LoadGeoJSON(path string) ([]Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	t, _ := raw["type"].(string)
	if t == "" {
		return nil, errors.New("invalid geojson: missing type")
	}

	var points []Point
	parsePoint := func(v any) (Point, bool) {
		if a, ok := v.([]any); ok && len(a) >= 2 {
			x, xok := a[0].(float64)
			y, yok := a[1].(float64)
			if xok && yok {
				return Point{x, y}, true
			}
		}
		return Point{}, false
	}
	parseMulti := func(v any) []Point {
		arr, ok := v.([]any)
		if !ok {
			return nil
		}
		var pts []Point
		for _, el := range arr {
			if pt, ok := parsePoint(el); ok {
				pts = append(pts, pt)
			}
		}
		return pts
	}
	addGeom := func(g map[string]any) {
		gt, _ := g["type"].(string)
		switch gt {
		case "Point":
			if pt, ok := parsePoint(g["coordinates"]); ok {
				points = append(points, pt)
			}
		case "MultiPoint":
			points = append(points, parseMulti(g["coordinates"])...)
		}
	}

	switch t {
	case "Point", "MultiPoint":
		addGeom(raw)
	case "Feature":
		if g, ok := raw["geometry"].(map[string]any); ok {
			addGeom(g)
		}
	case "FeatureCollection":
		if fs, ok := raw["features"].([]any); ok {
			for _, f := range fs {
				fm, _ := f.(map[string]any)
				if g, ok := fm["geometry"].(map[string]any); ok {
					addGeom(g)
				}
			}
		}
	default:
		return nil, errors.New("unsupported geojson type: " + t)
	}

	if len(points) == 0 {
		return nil, errors.New("no points found in geojson")
	}
	return points, nil
}

// LoadCSV reads a CSV with coordinate columns and returns points.
// Column detection: lat|latitude|y and lon|lng|long|longitude|x (case-insensitive).
func LoadCSV(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	recs, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("empty csv")
	}
	idxY, idxX := -1, -1
	for i, h := range recs[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "lat", "latitude", "y":
			if idxY == -1 {
				idxY = i
			}
		case "lon", "lng", "long", "longitude", "x":
			if idxX == -1 {
				idxX = i
			}
		}
	}
	if idxY == -1 || idxX == -1 {
		return nil, errors.New("csv: coordinate columns not found")
	}
	var points []Point
	for _, row := range recs[1:] {
		if idxX >= len(row) || idxY >= len(row) {
			continue
		}
		x, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxX]), 64)
		y, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxY]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		points = append(points, Point{x, y})
	}
	if len(points) == 0 {
		return nil, errors.New("csv: no valid points parsed")
	}
	return points, nil
}

// LoadKML extracts Point coordinates from a KML file. Placemarks may sit at
// any depth (Document, Folder). KML coordinates are "lon,lat[,alt]";
// altitude is ignored.
func LoadKML(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var points []Point
	dec := xml.NewDecoder(f)
	inPoint := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Point":
				inPoint = true
			case "coordinates":
				if !inPoint {
					continue
				}
				var raw string
				if err := dec.DecodeElement(&raw, &t); err != nil {
					return nil, err
				}
				// coordinates may contain multiple tuples separated by spaces
				for _, tuple := range strings.Fields(raw) {
					vals := strings.Split(tuple, ",")
					if len(vals) < 2 {
						continue
					}
					x, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
					y, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
					if err1 != nil || err2 != nil {
						continue
					}
					points = append(points, Point{x, y})
				}
			}
		case xml.EndElement:
			if t.Name.Local == "Point" {
				inPoint = false
			}
		}
	}
	if len(points) == 0 {
		return nil, errors.New("kml: no points found")
	}
	return points, nil
}

// ParseWKT parses a subset of WKT and returns point vertices.
// Supported: POINT(x y), MULTIPOINT(x y, ...), LINESTRING(x y, ...), POLYGON((x y, ...))
func ParseWKT(wkt string) ([]Point, error) {
	s := strings.TrimSpace(wkt)
	if s == "" {
		return nil, errors.New("empty wkt")
	}
	up := strings.ToUpper(s)
	var points []Point
	parseCoords := func(block string) {
		for _, tup := range strings.Split(block, ",") {
			// MULTIPOINT may wrap each tuple in its own parentheses.
			parts := strings.Fields(strings.Trim(strings.TrimSpace(tup), "()"))
			if len(parts) < 2 {
				continue
			}
			x, err1 := strconv.ParseFloat(parts[0], 64)
			y, err2 := strconv.ParseFloat(parts[1], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			points = append(points, Point{x, y})
		}
	}
	switch {
	case strings.HasPrefix(up, "POINT"), strings.HasPrefix(up, "MULTIPOINT"),
		strings.HasPrefix(up, "LINESTRING"):
		i := strings.Index(s, "(")
		j := strings.LastIndex(s, ")")
		if i < 0 || j <= i {
			return nil, errors.New("wkt: invalid parentheses")
		}
		parseCoords(s[i+1 : j])
	case strings.HasPrefix(up, "POLYGON"):
		i := strings.Index(s, "((")
		j := strings.LastIndex(s, "))")
		if i < 0 || j <= i {
			return nil, errors.New("wkt polygon: invalid")
		}
		parseCoords(s[i+2 : j])
	default:
		return nil, errors.New("unsupported wkt type")
	}
	if len(points) == 0 {
		return nil, errors.New("wkt: no coordinates parsed")
	}
	return points, nil
}

// DataBounds returns the bounding rect of a point set, or false when empty.
func DataBounds(pts []Point) (Rect, bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	b := Rect{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		if p.X < b.MinX {
			b.MinX = p.X
		}
		if p.Y < b.MinY {
			b.MinY = p.Y
		}
		if p.X > b.MaxX {
			b.MaxX = p.X
		}
		if p.Y > b.MaxY {
			b.MaxY = p.Y
		}
	}
	return b, true
}
