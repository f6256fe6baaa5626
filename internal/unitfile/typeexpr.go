package unitfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vesper-lang/vesper/internal/types"
)

// ParseType resolves a type expression against a universe. The grammar
// mirrors the surface syntax:
//
//	expr    := name | "ref" expr | "ptr" expr
//	         | "seq" "[" expr "]"
//	         | "array" "[" int "," expr "]"
//	         | "tuple" "[" expr { "," expr } "]"
//
// Compound expressions intern through the universe, so two spellings of
// the same structure yield the same *types.Type.
func ParseType(u *types.Universe, s string) (*types.Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, fmt.Errorf("empty type expression")

	case strings.HasPrefix(s, "ref "):
		pointee, err := ParseType(u, strings.TrimPrefix(s, "ref "))
		if err != nil {
			return nil, err
		}
		return u.RefTo(pointee), nil

	case strings.HasPrefix(s, "ptr "):
		pointee, err := ParseType(u, strings.TrimPrefix(s, "ptr "))
		if err != nil {
			return nil, err
		}
		return u.PtrTo(pointee), nil

	case strings.HasPrefix(s, "seq[") && strings.HasSuffix(s, "]"):
		elem, err := ParseType(u, s[len("seq["):len(s)-1])
		if err != nil {
			return nil, err
		}
		return u.SequenceOf(elem), nil

	case strings.HasPrefix(s, "array[") && strings.HasSuffix(s, "]"):
		parts := splitTop(s[len("array[") : len(s)-1])
		if len(parts) != 2 {
			return nil, fmt.Errorf("array type needs a length and an element: %q", s)
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad array length in %q", s)
		}
		elem, err := ParseType(u, parts[1])
		if err != nil {
			return nil, err
		}
		return u.ArrayOf(n, elem), nil

	case strings.HasPrefix(s, "tuple[") && strings.HasSuffix(s, "]"):
		parts := splitTop(s[len("tuple[") : len(s)-1])
		if len(parts) == 0 {
			return nil, fmt.Errorf("tuple type needs at least one element: %q", s)
		}
		elems := make([]*types.Type, len(parts))
		for i, p := range parts {
			elem, err := ParseType(u, p)
			if err != nil {
				return nil, err
			}
			elems[i] = elem
		}
		return u.TupleOf(elems...), nil
	}

	if t, ok := u.Named(s); ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown type %q", s)
}

// splitTop splits on commas at bracket depth zero.
func splitTop(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" || len(parts) > 0 {
		parts = append(parts, s[start:])
	}
	return parts
}
