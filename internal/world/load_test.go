package world

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadGeoJSON(t *testing.T) {
	p := writeTemp(t, "pts.geojson", `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "geometry": {"type": "Point", "coordinates": [1.5, 2.5]}},
			{"type": "Feature", "geometry": {"type": "MultiPoint", "coordinates": [[3, 4], [5, 6]]}},
			{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[9, 9], [8, 8]]}}
		]
	}`)
	pts, err := LoadGeoJSON(p)
	if err != nil {
		t.Fatalf("LoadGeoJSON: %v", err)
	}
	want := []Point{{1.5, 2.5}, {3, 4}, {5, 6}}
	if len(pts) != len(want) {
		t.Fatalf("got %d points, want %d", len(pts), len(want))
	}
	for i := range want {
		if pts[i] != want[i] {
			t.Errorf("pts[%d] = %+v, want %+v", i, pts[i], want[i])
		}
	}
}

func TestLoadGeoJSONErrors(t *testing.T) {
	if _, err := LoadGeoJSON(writeTemp(t, "bad.json", `{"type": "Polygon"}`)); err == nil {
		t.Error("unsupported type should error")
	}
	if _, err := LoadGeoJSON(writeTemp(t, "empty.json", `{"type": "FeatureCollection", "features": []}`)); err == nil {
		t.Error("no points should error")
	}
}

func TestLoadCSV(t *testing.T) {
	p := writeTemp(t, "pts.csv", "name,Longitude,Latitude\na,10,20\nb,30,40\nc,bad,41\n")
	pts, err := LoadCSV(p)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	want := []Point{{10, 20}, {30, 40}}
	if len(pts) != 2 || pts[0] != want[0] || pts[1] != want[1] {
		t.Errorf("pts = %+v, want %+v", pts, want)
	}
}

func TestLoadCSVMissingColumns(t *testing.T) {
	p := writeTemp(t, "pts.csv", "a,b\n1,2\n")
	if _, err := LoadCSV(p); err == nil {
		t.Error("missing coordinate columns should error")
	}
}

func TestLoadKML(t *testing.T) {
	p := writeTemp(t, "pts.kml", `<?xml version="1.0"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark><Point><coordinates>1.5,2.5,0</coordinates></Point></Placemark>
    <Placemark><name>no geometry</name></Placemark>
    <Placemark><Point><coordinates>3,4 5,6</coordinates></Point></Placemark>
  </Document>
</kml>`)
	pts, err := LoadKML(p)
	if err != nil {
		t.Fatalf("LoadKML: %v", err)
	}
	want := []Point{{1.5, 2.5}, {3, 4}, {5, 6}}
	if len(pts) != len(want) {
		t.Fatalf("got %d points, want %d", len(pts), len(want))
	}
	for i := range want {
		if pts[i] != want[i] {
			t.Errorf("pts[%d] = %+v, want %+v", i, pts[i], want[i])
		}
	}
}

func TestLoadKMLNoPoints(t *testing.T) {
	p := writeTemp(t, "empty.kml", `<kml><Document></Document></kml>`)
	if _, err := LoadKML(p); err == nil {
		t.Error("kml without points should error")
	}
}

func TestParseWKT(t *testing.T) {
	tests := []struct {
		name string
		wkt  string
		want int
	}{
		{"point", "POINT(1 2)", 1},
		{"multipoint", "MULTIPOINT(1 2, 3 4)", 2},
		{"multipoint parenthesized", "MULTIPOINT ((1 2), (3 4))", 2},
		{"linestring", "LINESTRING(0 0, 1 1, 2 2)", 3},
		{"polygon", "POLYGON((0 0, 10 0, 10 10, 0 10))", 4},
		{"lowercase", "point(5 6)", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts, err := ParseWKT(tt.wkt)
			if err != nil {
				t.Fatalf("ParseWKT(%q): %v", tt.wkt, err)
			}
			if len(pts) != tt.want {
				t.Errorf("got %d points, want %d", len(pts), tt.want)
			}
		})
	}
	if _, err := ParseWKT("CIRCLE(0 0)"); err == nil {
		t.Error("unsupported type should error")
	}
	if _, err := ParseWKT(""); err == nil {
		t.Error("empty input should error")
	}
}

func TestItemsFromPoints(t *testing.T) {
	r := NewRegistry()
	items := ItemsFromPoints(r, []Point{{0, 0}, {10, 10}}, '•', 2)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID == items[1].ID {
		t.Error("items must get distinct ids")
	}
	want := Rect{MinX: -1, MinY: -1, MaxX: 1, MaxY: 1}
	if items[0].Rect != want {
		t.Errorf("rect = %+v, want %+v", items[0].Rect, want)
	}
	if !items[0].Clusterable {
		t.Error("loaded points should be clusterable")
	}
}

func TestDataBounds(t *testing.T) {
	b, ok := DataBounds([]Point{{1, 2}, {-3, 8}, {5, 0}})
	if !ok {
		t.Fatal("bounds should exist")
	}
	if b != (Rect{MinX: -3, MinY: 0, MaxX: 5, MaxY: 8}) {
		t.Errorf("bounds = %+v", b)
	}
	if _, ok := DataBounds(nil); ok {
		t.Error("empty input has no bounds")
	}
}
