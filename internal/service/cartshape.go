package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/and161185/imageshop/internal/model"
	"github.com/tidwall/gjson"
)

// cartShapeKind discriminates the payloads GET /Cart may return.
type cartShapeKind int

const (
	cartEmpty     cartShapeKind = iota // null or empty body
	cartIDList                         // ["id1","id2"]
	cartItemList                       // [{"imageId":"id1","quantity":2}, ...]
	cartWrapped                        // {"items":[...]}
)

func (k cartShapeKind) String() string {
	switch k {
	case cartIDList:
		return "id-list"
	case cartItemList:
		return "item-list"
	case cartWrapped:
		return "wrapped"
	default:
		return "empty"
	}
}

type cartEntry struct {
	imageID  string
	quantity int
}

// cartShape is the tagged union inferred from the payload structure.
type cartShape struct {
	kind    cartShapeKind
	entries []cartEntry
}

// ImageLookup resolves image ids against the catalog.
type ImageLookup interface {
	Image(id string) (model.Image, bool)
}

// parseCartShape inspects raw and builds the union. Unknown shapes are an error.
func parseCartShape(raw []byte) (cartShape, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return cartShape{kind: cartEmpty}, nil
	}
	if !gjson.ValidBytes(raw) {
		return cartShape{}, fmt.Errorf("cart payload: invalid JSON")
	}
	root := gjson.ParseBytes(raw)
	switch {
	case root.Type == gjson.Null:
		return cartShape{kind: cartEmpty}, nil
	case root.IsArray():
		kind, entries := parseCartArray(root)
		return cartShape{kind: kind, entries: entries}, nil
	case root.IsObject():
		items := root.Get("items")
		if !items.Exists() || items.Type == gjson.Null {
			return cartShape{kind: cartWrapped}, nil
		}
		if !items.IsArray() {
			return cartShape{}, fmt.Errorf("cart payload: items is %s, want array", items.Type)
		}
		_, entries := parseCartArray(items)
		return cartShape{kind: cartWrapped, entries: entries}, nil
	default:
		return cartShape{}, fmt.Errorf("cart payload: unexpected %s", root.Type)
	}
}

// parseCartArray reads an array of ids or item objects. Elements of any other type are skipped.
func parseCartArray(arr gjson.Result) (cartShapeKind, []cartEntry) {
	kind := cartIDList
	var entries []cartEntry
	arr.ForEach(func(_, el gjson.Result) bool {
		switch {
		case el.Type == gjson.String:
			entries = append(entries, cartEntry{imageID: el.Str, quantity: 1})
		case el.IsObject():
			kind = cartItemList
			entries = append(entries, cartEntry{imageID: itemImageID(el), quantity: itemQuantity(el)})
		}
		return true
	})
	return kind, entries
}

func itemImageID(el gjson.Result) string {
	if id := el.Get("imageId"); id.Type == gjson.String && id.Str != "" {
		return id.Str
	}
	if id := el.Get("image.id"); id.Type == gjson.String {
		return id.Str
	}
	return ""
}

// itemQuantity returns a positive integer quantity, 1 when missing or invalid.
func itemQuantity(el gjson.Result) int {
	q := el.Get("quantity")
	if q.Type != gjson.Number || q.Num < 1 || q.Num != math.Trunc(q.Num) || q.Num > math.MaxInt32 {
		return 1
	}
	return int(q.Num)
}

// lines turns the union into canonical cart lines: unknown images dropped, first
// occurrence of an image id wins.
func (s cartShape) lines(catalog ImageLookup) []model.CartLine {
	out := make([]model.CartLine, 0, len(s.entries))
	seen := make(map[string]struct{}, len(s.entries))
	for _, e := range s.entries {
		if e.imageID == "" {
			continue
		}
		if _, dup := seen[e.imageID]; dup {
			continue
		}
		seen[e.imageID] = struct{}{}
		img, ok := catalog.Image(e.imageID)
		if !ok {
			continue
		}
		out = append(out, model.CartLine{ImageID: e.imageID, Image: img, Quantity: e.quantity})
	}
	return out
}

// NormalizeCart converts any accepted GET /Cart payload into canonical lines.
func NormalizeCart(raw []byte, catalog ImageLookup) ([]model.CartLine, error) {
	shape, err := parseCartShape(raw)
	if err != nil {
		return nil, err
	}
	return shape.lines(catalog), nil
}
