package jsv

import (
	"errors"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/oarkflow/jsv/jsonmap"
)

func TestEncodeRecords(t *testing.T) {
	for _, wf := range wellformedTable {
		tmpl := MustParseTemplate(wf.template)
		for _, vr := range wf.valid {
			t.Run(wf.template+" "+vr.record, func(t *testing.T) {
				got, err := tmpl.Encode(mustParseJSON(t, vr.object))
				if err != nil {
					t.Fatalf("Encode: %v", err)
				}
				if got != vr.record {
					t.Fatalf("Encode = %s, want %s", got, vr.record)
				}
			})
		}
	}
}

func TestDecodeRecords(t *testing.T) {
	for _, wf := range wellformedTable {
		tmpl := MustParseTemplate(wf.template)
		for _, vr := range wf.valid {
			t.Run(wf.template+" "+vr.record, func(t *testing.T) {
				got, err := tmpl.Decode(vr.record)
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				want := mustParseJSON(t, vr.object)
				if !jsonmap.Equal(got, want) {
					t.Fatalf("Decode = %v, want %v", got, want)
				}
				out, err := jsonmap.Marshal(got)
				if err != nil {
					t.Fatal(err)
				}
				if string(out) != vr.object {
					t.Fatalf("decoded order/text %s, want %s", out, vr.object)
				}
			})
		}
	}
}

func TestEncodeGoValues(t *testing.T) {
	type point struct {
		X int     `json:"x"`
		Y float64 `json:"y"`
		Z *int    `json:"z,omitempty"`
	}
	tmpl := MustParseTemplate(`[{"x","y","z"}]`)
	got, err := tmpl.Encode([]point{{X: 1, Y: 2.5}, {X: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if got != `[{1,2.5,},{3,0,}]` {
		t.Fatalf("Encode = %s", got)
	}
	got, err = MustParseTemplate(`{"b","a"}`).Encode(map[string]any{"a": 1, "b": 2, "d": 4, "c": 3})
	if err != nil {
		t.Fatal(err)
	}
	if got != `{2,1,"c":3,"d":4}` {
		t.Fatalf("Encode = %s", got)
	}
}

func TestEncodeShapeErrors(t *testing.T) {
	tests := []struct {
		template string
		value    string
		msg      string
	}{
		{`[{"key_1"}]`, `{"key_1":1}`, "Expecting an array, got object"},
		{`{"key_1":[{"key_2","key_3"}]}`, `[{"key_1":1}]`, "Expecting an object, got array"},
		{`{"key_1":[{"key_2","key_3"}]}`, `{"key_1":3}`, `key "key_1": Expecting an array, got number`},
		{`[,{"a"}]`, `[1,2]`, "index 1: Expecting an object, got number"},
		{`{"a":{"b"}}`, `{"a":null}`, `key "a": Expecting an object, got null`},
	}
	for _, tt := range tests {
		_, err := MustParseTemplate(tt.template).Encode(mustParseJSON(t, tt.value))
		var se *ShapeError
		if !errors.As(err, &se) {
			t.Errorf("%s / %s: expected ShapeError, got %v", tt.template, tt.value, err)
			continue
		}
		if err.Error() != tt.msg {
			t.Errorf("%s / %s: error %q, want %q", tt.template, tt.value, err.Error(), tt.msg)
		}
	}
}

func TestDecodeInvalidRecords(t *testing.T) {
	tests := []struct {
		template string
		record   string
		msg      string
	}{
		{`{"key_1","key_2","key_3","key_4"}`, `{1,2,3,,}`, "Expecting `\"`: column 8"},
		{`{"key_1","key_2","key_3","key_4"}`, `{1,2,3,4,`, "End of string reached unexpectedly while awaiting `\"`: column 8"},
		{`{"key_1","key_2","key_3","key_4"}`, `{1,2,3,4,"key_5`, "End of string reached unexpectedly: column 14"},
		{`{"key_1","key_2","key_3","key_4"}`, `{1,2,3,4,"key_\h": 5}`, "expecting valid escape character: column 15"},
		{`{"key_1","key_2","key_3","key_4"}`, `{1,2,3,4,"key_\u4t44": 5}`, "Expected a hex character ([0-9A-Fa-f]): column 17"},
		{`{"key_1":{"key_1_1"},"key_2"}`, `{{"value_1_1"}, ["bad", "json}`, "Error decoding raw json: column 15"},
		{`[{"key_1"},]`, `[{"value_1", "key_2"`, "End of string reached unexpectedly while awaiting `:`: column 19"},
		{`[{"key_1"},]`, `[{"value_1", "key_2" &`, "Expecting `:`: column 21"},
		{`[[{"key_1"}]]`, ``, "End of string reached unexpectedly: column -1"},
		{`[[{"key_1"}]]`, `{`, "Unexpected character `{` encountered: column 0"},
		{`{"a"}`, `{1} 2`, "Unexpected character `2` encountered: column 4"},
		{`{"a"}`, `{1 2}`, "Expecting `,` or `}`: column 3"},
		{`[,{"a"}]`, `[1 2]`, "Expecting `,` or `]`: column 3"},
		{`[,{"a"}]`, `[1,,]`, "Unexpected character `,` encountered: column 3"},
		{`[{"a"},]`, `[{1},,]`, "Error decoding raw json: column 5"},
		{`{"a"}`, `{1,"b":2 3}`, "Expecting `,` or `}`: column 9"},
		{`{"a"}`, `{1,"b":}`, "Error decoding raw json: column 7"},
		{`{"a"}`, `{1,"b":`, "End of string reached unexpectedly: column 6"},
		{`{}`, `{"a":tru}`, "Error decoding raw json: column 0"},
		{`{"a":{"b"}}`, `{null}`, "Unexpected character `n` encountered: column 1"},
	}
	for _, tt := range tests {
		t.Run(tt.template+" "+tt.record, func(t *testing.T) {
			_, err := MustParseTemplate(tt.template).Decode(tt.record)
			var re *RecordDecodeError
			if !errors.As(err, &re) {
				t.Fatalf("expected *RecordDecodeError, got %v", err)
			}
			if err.Error() != tt.msg {
				t.Fatalf("error = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestDecodeRawJSONErrorUnwraps(t *testing.T) {
	_, err := MustParseTemplate(`{"a"}`).Decode(`{[1,}`)
	var se *jsonmap.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected wrapped SyntaxError, got %v", err)
	}
}

// Declared slots are consumed first, then extension fields.
func TestDecodeElisionBoundary(t *testing.T) {
	tmpl := MustParseTemplate(`{"a","b","c"}`)
	tests := []struct {
		record string
		want   string
	}{
		{`{}`, `{}`},
		{`{,,}`, `{}`},
		{`{1}`, `{"a":1}`},
		{`{1,2}`, `{"a":1,"b":2}`},
		{`{,2}`, `{"b":2}`},
		{`{ , , 3 }`, `{"c":3}`},
		{`{1,2,3,"d":4}`, `{"a":1,"b":2,"c":3,"d":4}`},
		{`{,,,"d":4}`, `{"d":4}`},
		{`{null,,}`, `{"a":null}`},
		{`{1,2,3,"a":9}`, `{"a":9,"b":2,"c":3}`},
		{` { 1 , "x" , [ 1 , 2 ] } `, `{"a":1,"b":"x","c":[1,2]}`},
	}
	for _, tt := range tests {
		got, err := tmpl.Decode(tt.record)
		if err != nil {
			t.Errorf("Decode(%s): %v", tt.record, err)
			continue
		}
		out, _ := jsonmap.Marshal(got)
		if string(out) != tt.want {
			t.Errorf("Decode(%s) = %s, want %s", tt.record, out, tt.want)
		}
	}
	// An extension key can only follow the last declared slot.
	if _, err := tmpl.Decode(`{1,"d":4}`); err == nil {
		t.Error(`expected {1,"d":4} to fail`)
	}
}

func TestAbsentKeysEncodeAsEmptySlots(t *testing.T) {
	tmpl := MustParseTemplate(`{"a","b":{"c"},"d":[]}`)
	got, err := tmpl.Encode(jsonmap.MapOf("b", jsonmap.NewMap(0)))
	if err != nil {
		t.Fatal(err)
	}
	if got != `{,{},}` {
		t.Fatalf("Encode = %s", got)
	}
	v, err := tmpl.Decode(got)
	if err != nil {
		t.Fatal(err)
	}
	if !jsonmap.Equal(v, jsonmap.MapOf("b", jsonmap.NewMap(0))) {
		t.Fatalf("Decode = %v", v)
	}
}

func TestRoundTripExamples(t *testing.T) {
	templates := []string{
		`{"id","name","owner":{"email","roles":[]},"tags":[,{"k","v"}]}`,
		`[{"key_1"},]`,
		`[[{"a","b"}],{"c"}]`,
		`{"и","\" \\ \b \f \n \r \t":[{"x"}]}`,
	}
	for _, wf := range wellformedTable {
		templates = append(templates, wf.template)
	}
	f := gofakeit.New(42)
	for _, s := range templates {
		tmpl := MustParseTemplate(s)
		for i := 0; i < 50; i++ {
			v := tmpl.Example(f)
			rec, err := tmpl.Encode(v)
			if err != nil {
				t.Fatalf("%s: Encode(%v): %v", s, v, err)
			}
			got, err := tmpl.Decode(rec)
			if err != nil {
				t.Fatalf("%s: Decode(%s): %v", s, rec, err)
			}
			if !jsonmap.Equal(got, v) {
				t.Fatalf("%s: round trip of %s gave %v", s, rec, got)
			}
			inferred, err := InferTemplate(v)
			if err != nil {
				t.Fatal(err)
			}
			again, err := ParseTemplate(inferred.String())
			if err != nil || !again.Equal(inferred) {
				t.Fatalf("canonical text %s does not parse back: %v", inferred, err)
			}
		}
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	type row struct {
		ID   int      `json:"id"`
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	tmpl := MustParseTemplate(`{"id","name","tags"}`)
	data, err := Marshal(tmpl, row{ID: 7, Name: "seven", Tags: []string{"a"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{7,"seven",["a"]}` {
		t.Fatalf("Marshal = %s", data)
	}
	var r row
	if err := Unmarshal(tmpl, []byte(`{8,,["b"],"extra":1}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.ID != 8 || r.Name != "" || len(r.Tags) != 1 || r.Tags[0] != "b" {
		t.Fatalf("Unmarshal = %+v", r)
	}
	var v any
	if err := Unmarshal(tmpl, []byte(`{1,"x",[]}`), &v); err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(*jsonmap.Map); !ok {
		t.Fatalf("*any should receive an ordered map, got %T", v)
	}
	if err := Unmarshal(tmpl, []byte(`{1}`), r); err == nil {
		t.Fatal("expected error for non-pointer destination")
	}
	if err := Unmarshal(tmpl, []byte(`{1`), &r); err == nil {
		t.Fatal("expected decode error")
	}
}

func ExampleTemplate_Decode() {
	tmpl := MustParseTemplate(`{"key_1","key_2","key_3","key_4"}`)
	v, _ := tmpl.Decode(`{1,,3,,"key_5":5}`)
	fmt.Println(v)
	// Output: {"key_1":1,"key_3":3,"key_5":5}
}

func ExampleInferTemplate() {
	tmpl, _ := InferTemplate(map[string]any{"b": 1, "a": []any{map[string]any{"c": true}}})
	rec, _ := tmpl.Encode(map[string]any{"a": []any{}, "b": 2, "z": nil})
	fmt.Println(tmpl)
	fmt.Println(rec)
	// Output:
	// {"a":[{"c"}],"b"}
	// {[],2,"z":null}
}
