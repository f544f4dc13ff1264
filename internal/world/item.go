package world

// Payload is the opaque render handle attached to an item. The engine never
// inspects it beyond handing it back to whoever draws the visible set.
type Payload interface {
	// Glyph returns the marker used to draw the item on a cell canvas.
	Glyph() rune
}

// Item is one positioned piece of content. Rect is immutable once the item is
// indexed; moving an item means replacing it in the registry, which forces a
// rebuild of the spatial index.
type Item struct {
	ID          uint64
	Rect        Rect
	Payload     Payload
	Clusterable bool
	Priority    int
}

// GlyphPayload is the trivial payload: a bare marker rune.
type GlyphPayload rune

func (g GlyphPayload) Glyph() rune { return rune(g) }
