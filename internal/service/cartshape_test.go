package service

import (
	"testing"

	"github.com/and161185/imageshop/internal/model"
	"github.com/stretchr/testify/require"
)

func TestParseCartShape_Kinds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind cartShapeKind
		n    int
	}{
		{"empty body", "", cartEmpty, 0},
		{"null", "null", cartEmpty, 0},
		{"id list", `["a","b"]`, cartIDList, 2},
		{"empty array", `[]`, cartIDList, 0},
		{"item list", `[{"imageId":"a","quantity":2}]`, cartItemList, 1},
		{"nested image", `[{"image":{"id":"a"}}]`, cartItemList, 1},
		{"wrapped", `{"items":[{"imageId":"a"}]}`, cartWrapped, 1},
		{"wrapped ids", `{"items":["a","b","c"]}`, cartWrapped, 3},
		{"wrapped without items", `{"id":"cart-1"}`, cartWrapped, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := parseCartShape([]byte(tt.raw))
			require.NoError(t, err)
			require.Equal(t, tt.kind, s.kind, s.kind.String())
			require.Len(t, s.entries, tt.n)
		})
	}
}

func TestParseCartShape_Rejects(t *testing.T) {
	for _, raw := range []string{`{bad`, `42`, `"a"`, `{"items":"a"}`} {
		_, err := parseCartShape([]byte(raw))
		require.Error(t, err, raw)
	}
}

func TestNormalizeCart_ShapesAgree(t *testing.T) {
	cat := testCatalog()
	payloads := []string{
		`["a","b"]`,
		`[{"imageId":"a"},{"imageId":"b","quantity":1}]`,
		`[{"image":{"id":"a"}},{"image":{"id":"b"}}]`,
		`{"items":[{"imageId":"a"},{"image":{"id":"b"}}]}`,
		`{"items":["a","b"]}`,
	}
	want := []model.CartLine{
		{ImageID: "a", Image: imgA, Quantity: 1},
		{ImageID: "b", Image: imgB, Quantity: 1},
	}
	for _, p := range payloads {
		got, err := NormalizeCart([]byte(p), cat)
		require.NoError(t, err, p)
		require.Equal(t, want, got, p)
	}
}

func TestNormalizeCart_DedupFirstWins(t *testing.T) {
	got, err := NormalizeCart([]byte(`[{"imageId":"a","quantity":3},{"imageId":"b"},{"imageId":"a","quantity":7}]`), testCatalog())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].ImageID)
	require.Equal(t, 3, got[0].Quantity)
	require.Equal(t, "b", got[1].ImageID)
}

func TestNormalizeCart_DropsUnknownAndFixesQuantity(t *testing.T) {
	raw := `[{"imageId":"ghost"},{"imageId":"a","quantity":0},{"imageId":"b","quantity":2.5},{"imageId":"c","quantity":"4"},{}]`
	got, err := NormalizeCart([]byte(raw), testCatalog())
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, l := range got {
		require.Equal(t, 1, l.Quantity, l.ImageID)
	}
}

func TestNormalizeCart_Empty(t *testing.T) {
	for _, raw := range []string{"", "null", "[]", `{"items":[]}`} {
		got, err := NormalizeCart([]byte(raw), testCatalog())
		require.NoError(t, err)
		require.Empty(t, got)
	}
}
