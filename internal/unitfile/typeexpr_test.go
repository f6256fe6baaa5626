package unitfile

import (
	"testing"

	"github.com/vesper-lang/vesper/internal/position"
	"github.com/vesper-lang/vesper/internal/types"
)

func parseEnv(t *testing.T) *types.Universe {
	t.Helper()
	u := types.NewUniverse()
	if _, err := u.DeclareObject("Resource", position.Span{}); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestParseTypeExpressions(t *testing.T) {
	u := parseEnv(t)

	cases := []struct {
		in   string
		kind types.Kind
		str  string
	}{
		{"int64", types.KindInt64, "int64"},
		{"Resource", types.KindObject, "Resource"},
		{"ref Resource", types.KindRef, "ref Resource"},
		{"ptr Resource", types.KindPtr, "ptr Resource"},
		{"seq[Resource]", types.KindSequence, "seq[Resource]"},
		{"array[3, Resource]", types.KindArray, "array[3, Resource]"},
		{"tuple[int64, Resource]", types.KindTuple, "tuple[int64, Resource]"},
		{"seq[array[2, ref Resource]]", types.KindSequence, "seq[array[2, ref Resource]]"},
		{"  ref  Resource ", types.KindRef, "ref Resource"},
	}

	for _, tc := range cases {
		got, err := ParseType(u, tc.in)
		if err != nil {
			t.Errorf("ParseType(%q) failed: %v", tc.in, err)
			continue
		}
		if got.Kind != tc.kind {
			t.Errorf("ParseType(%q).Kind = %v, want %v", tc.in, got.Kind, tc.kind)
		}
		if got.String() != tc.str {
			t.Errorf("ParseType(%q) = %s, want %s", tc.in, got, tc.str)
		}
	}
}

func TestParseTypeInternsThroughTheUniverse(t *testing.T) {
	u := parseEnv(t)

	a, err := ParseType(u, "seq[ref Resource]")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseType(u, "seq[ ref Resource ]")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("equal spellings must intern to the same type node")
	}
}

func TestParseTypeErrors(t *testing.T) {
	u := parseEnv(t)

	for _, in := range []string{
		"",
		"Missing",
		"seq[Missing]",
		"array[Resource]",
		"array[x, Resource]",
		"array[-1, Resource]",
		"tuple[]",
	} {
		if _, err := ParseType(u, in); err == nil {
			t.Errorf("ParseType(%q) should fail", in)
		}
	}
}
