package schema

import "testing"

func TestRawURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			in:   "https://github.com/megadigo/gaml-schema/blob/main/gaml-schema.json",
			want: "https://raw.githubusercontent.com/megadigo/gaml-schema/main/gaml-schema.json",
		},
		{
			in:   "https://raw.githubusercontent.com/megadigo/gaml-schema/main/gaml-schema.json",
			want: "https://raw.githubusercontent.com/megadigo/gaml-schema/main/gaml-schema.json",
		},
		{
			in:   "https://schemas.example.com/gaml.json",
			want: "https://schemas.example.com/gaml.json",
		},
		{
			// Only the first /blob/ is rewritten.
			in:   "https://github.com/acme/x/blob/main/blob/s.json",
			want: "https://raw.githubusercontent.com/acme/x/main/blob/s.json",
		},
	}
	for _, tt := range tests {
		if got := RawURL(tt.in); got != tt.want {
			t.Errorf("RawURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBlobURL(t *testing.T) {
	loc, ok := ParseBlobURL("https://github.com/megadigo/gaml-schema/blob/v1.2/schemas/gaml.json")
	if !ok {
		t.Fatal("expected blob URL to parse")
	}
	want := BlobLocation{Owner: "megadigo", Repo: "gaml-schema", Ref: "v1.2", Path: "schemas/gaml.json"}
	if loc != want {
		t.Fatalf("got %+v, want %+v", loc, want)
	}

	for _, bad := range []string{
		"https://raw.githubusercontent.com/megadigo/gaml-schema/main/gaml.json",
		"https://github.com/megadigo/gaml-schema/tree/main/gaml.json",
		"https://github.com/megadigo/gaml-schema/blob/main",
		"ftp://github.com/a/b/blob/main/x.json",
		"not a url",
	} {
		if _, ok := ParseBlobURL(bad); ok {
			t.Errorf("ParseBlobURL(%q) unexpectedly succeeded", bad)
		}
	}
}

func TestCheckReference(t *testing.T) {
	if _, warn := CheckReference("https://github.com/megadigo/gaml-schema/blob/main/s.json", DefaultExpectedReference); warn {
		t.Fatal("expected no warning for matching reference")
	}
	msg, warn := CheckReference("https://example.com/other.json", DefaultExpectedReference)
	if !warn || msg == "" {
		t.Fatal("expected advisory warning for non-matching reference")
	}
	if _, warn := CheckReference("https://example.com/other.json", ""); warn {
		t.Fatal("empty expectation disables the check")
	}
}
