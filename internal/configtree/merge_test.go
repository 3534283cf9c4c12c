package configtree

import (
	"reflect"
	"testing"
)

func TestMerge_Mismatch(t *testing.T) {
	base := MapOf("test", MapOf("a", 1))
	override := MapOf("test", "scalar")

	got := MergeMaps(base, override)

	v, _ := got.Get("test")
	if v != "scalar" {
		t.Errorf("test = %v, want scalar", v)
	}
}

func TestMerge_Recursive(t *testing.T) {
	base := MapOf(
		"layer1", MapOf(
			"layer2", MapOf(
				"layer3", MapOf("a", 1, "b", 2),
				"other", "keep",
			),
		),
		"top", "base",
	)
	override := MapOf(
		"layer1", MapOf(
			"layer2", MapOf(
				"layer3", MapOf("b", 20, "c", 30),
			),
		),
	)

	got := MergeMaps(base, override)

	want := `{"layer1":{"layer2":{"layer3":{"a":1,"b":20,"c":30},"other":"keep"}},"top":"base"}`
	if s := mustEncode(t, got); s != want {
		t.Errorf("Merge() = %s, want %s", s, want)
	}
}

func TestMerge_ListReplacesWholesale(t *testing.T) {
	base := MapOf("list", []any{1, 2, 3, 4, 5, 6})
	override := MapOf("list", []any{"a", "b", "c"})

	got := MergeMaps(base, override)

	v, _ := got.Get("list")
	if !reflect.DeepEqual(v, []any{"a", "b", "c"}) {
		t.Errorf("list = %v, want [a b c]", v)
	}
}

func TestMerge_Rules(t *testing.T) {
	tests := []struct {
		name     string
		base     any
		override any
		want     string
	}{
		{
			name:     "empty mapping override keeps base",
			base:     MapOf("a", 1),
			override: NewMap(),
			want:     `{"a":1}`,
		},
		{
			name:     "empty list override keeps base",
			base:     []any{1, 2},
			override: []any{},
			want:     `[1,2]`,
		},
		{
			name:     "scalar override replaces mapping",
			base:     MapOf("a", 1),
			override: 7,
			want:     `7`,
		},
		{
			name:     "nil override replaces",
			base:     MapOf("a", 1),
			override: nil,
			want:     `null`,
		},
		{
			name:     "integer keyed mapping replaces like a list",
			base:     MapOf("a", 1),
			override: MapOf("0", "x", "1", "y"),
			want:     `{"0":"x","1":"y"}`,
		},
		{
			name:     "override only keys append in override order",
			base:     MapOf("b", 1, "a", 2),
			override: MapOf("z", 3, "a", 4, "c", 5),
			want:     `{"b":1,"a":4,"z":3,"c":5}`,
		},
		{
			name:     "nested empty mapping replaces nested base",
			base:     MapOf("params", MapOf("x", 1)),
			override: MapOf("params", NewMap()),
			want:     `{"params":{}}`,
		},
		{
			name:     "nested empty list replaces nested list",
			base:     MapOf("a", []any{1, 2}),
			override: MapOf("a", []any{}),
			want:     `{"a":[]}`,
		},
		{
			name:     "nested mapping replaces nested list",
			base:     MapOf("a", []any{1, 2}),
			override: MapOf("a", MapOf("x", 1)),
			want:     `{"a":{"x":1}}`,
		},
		{
			name:     "nested list replaces nested mapping",
			base:     MapOf("a", MapOf("x", 1)),
			override: MapOf("a", []any{3}),
			want:     `{"a":[3]}`,
		},
		{
			name:     "nested integer keyed mapping replaces nested mapping",
			base:     MapOf("a", MapOf("x", 1)),
			override: MapOf("a", MapOf("0", "y")),
			want:     `{"a":{"0":"y"}}`,
		},
		{
			name:     "assoc override over list base keeps indexes",
			base:     []any{"p", "q"},
			override: MapOf("k", "v"),
			want:     `{"0":"p","1":"q","k":"v"}`,
		},
		{
			name:     "assoc override over scalar base",
			base:     "s",
			override: MapOf("k", "v"),
			want:     `{"k":"v"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.base, tt.override)
			if s := mustEncode(t, got); s != tt.want {
				t.Errorf("Merge() = %s, want %s", s, tt.want)
			}
		})
	}
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	inner := MapOf("x", 1)
	base := MapOf("params", inner)
	override := MapOf("params", MapOf("y", 2), "list", []any{1})

	got := MergeMaps(base, override)

	params, _ := got.Get("params")
	params.(*Map).Set("z", 3)
	list, _ := got.Get("list")
	list.([]any)[0] = 99

	if inner.Has("y") || inner.Has("z") {
		t.Errorf("base mutated: %s", mustEncode(t, inner))
	}
	if ov, _ := override.Get("list"); ov.([]any)[0] != 1 {
		t.Errorf("override list mutated: %v", ov)
	}
}

func TestIsAssocAndListLike(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		wantAssoc bool
		wantList  bool
	}{
		{"string keys", MapOf("a", 1), true, false},
		{"integer keys", MapOf("0", 1, "1", 2), false, true},
		{"sparse integer keys", MapOf("5", 1), false, true},
		{"leading zero is a string key", MapOf("01", 1), true, false},
		{"mixed keys", MapOf("0", 1, "a", 2), true, false},
		{"sequence", []any{1}, false, true},
		{"scalar", "x", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAssoc(tt.value); got != tt.wantAssoc {
				t.Errorf("IsAssoc() = %v, want %v", got, tt.wantAssoc)
			}
			if got := IsListLike(tt.value); got != tt.wantList {
				t.Errorf("IsListLike() = %v, want %v", got, tt.wantList)
			}
		})
	}
}

func TestMap_SetKeepsPosition(t *testing.T) {
	m := MapOf("a", 1, "b", 2, "c", 3)
	m.Set("a", 10)
	m.Delete("b")
	m.Set("d", 4)

	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "c", "d"}) {
		t.Errorf("Keys() = %v", got)
	}
	if v, _ := m.Get("a"); v != 10 {
		t.Errorf("a = %v, want 10", v)
	}
}

func mustEncode(t *testing.T, v any) string {
	t.Helper()
	data, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return string(data)
}
