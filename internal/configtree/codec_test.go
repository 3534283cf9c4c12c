package configtree

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestDecode_KeepsOrderAndKinds(t *testing.T) {
	src := `
services:
  zeta:
    class: container
    params:
      numbers: [1, 1, 2, 3]
      enabled: true
      ratio: 0.5
      nothing: ~
  alpha:
    class: container
`
	got, err := DecodeMap([]byte(src))
	if err != nil {
		t.Fatalf("DecodeMap() error = %v", err)
	}

	services, _ := got.Get("services")
	if keys := services.(*Map).Keys(); !reflect.DeepEqual(keys, []string{"zeta", "alpha"}) {
		t.Errorf("service order = %v, want [zeta alpha]", keys)
	}

	want := `{"services":{"zeta":{"class":"container","params":{"numbers":[1,1,2,3],"enabled":true,"ratio":0.5,"nothing":null}},"alpha":{"class":"container"}}}`
	if s := mustEncode(t, got); s != want {
		t.Errorf("Encode() = %s\nwant %s", s, want)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	tree := MapOf(
		"b", MapOf("list", []any{"x", MapOf("k", 1)}, "empty", NewMap()),
		"a", "text with \"quotes\" and <tags>",
		"0", false,
	)

	data := mustEncode(t, tree)
	back, err := DecodeMap([]byte(data))
	if err != nil {
		t.Fatalf("DecodeMap() error = %v", err)
	}

	if again := mustEncode(t, back); again != data {
		t.Errorf("round trip = %s, want %s", again, data)
	}
}

func TestDecode_MergeKeysAndAnchors(t *testing.T) {
	src := `
base: &base
  class: container
  params:
    color: red
child:
  <<: *base
  class: other
`
	got, err := DecodeMap([]byte(src))
	if err != nil {
		t.Fatalf("DecodeMap() error = %v", err)
	}

	want := `{"base":{"class":"container","params":{"color":"red"}},"child":{"class":"other","params":{"color":"red"}}}`
	if s := mustEncode(t, got); s != want {
		t.Errorf("Encode() = %s, want %s", s, want)
	}
}

func TestDecodeMap_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"sequence root", "[1, 2]", ErrNotMapping},
		{"scalar root", "just text", ErrNotMapping},
		{"invalid yaml", "a: [b", nil},
		{"infinity", "a: .inf", ErrNonFinite},
		{"negative infinity", "a: [-.Inf]", ErrNonFinite},
		{"not a number", "a: {b: .nan}", ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMap([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeMap_EmptyDocument(t *testing.T) {
	got, err := DecodeMap(nil)
	if err != nil {
		t.Fatalf("DecodeMap() error = %v", err)
	}
	if got.Len() != 0 {
		t.Errorf("Len() = %d, want 0", got.Len())
	}
}

func TestEncode_FloatsStayFloats(t *testing.T) {
	tree := MapOf(
		"one", 1.0,
		"half", 0.5,
		"negative", -3.0,
		"big", 1e21,
		"small", float32(2),
		"count", 7,
	)

	data := mustEncode(t, tree)
	if want := `{"one":1.0,"half":0.5,"negative":-3.0,"big":1e+21,"small":2.0,"count":7}`; data != want {
		t.Fatalf("Encode() = %s, want %s", data, want)
	}

	back, err := DecodeMap([]byte(data))
	if err != nil {
		t.Fatalf("DecodeMap() error = %v", err)
	}
	tests := []struct {
		key  string
		want any
	}{
		{"one", 1.0},
		{"half", 0.5},
		{"negative", -3.0},
		{"big", 1e21},
		{"small", 2.0},
		{"count", 7},
	}
	for _, tt := range tests {
		if got, _ := back.Get(tt.key); got != tt.want {
			t.Errorf("%s = %#v, want %#v", tt.key, got, tt.want)
		}
	}
}

func TestEncode_NonFinite(t *testing.T) {
	for _, f := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		if _, err := Encode(MapOf("x", f)); !errors.Is(err, ErrNonFinite) {
			t.Errorf("Encode(%v) error = %v, want %v", f, err, ErrNonFinite)
		}
	}
}
