package stack

import (
	"bytes"
	"fmt"
	"strings"
)

// Interpolate substitutes $VAR and ${VAR} references in src from lookup,
// before the yaml decode so values can appear anywhere in the descriptor.
// ${VAR:-def} falls back when the variable is unset or empty, ${VAR-def}
// only when unset, and $$ escapes a literal dollar sign. Unset variables
// without a default expand to the empty string.
func Interpolate(src []byte, lookup func(string) (string, bool)) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(src))

	for i := 0; i < len(src); i++ {
		c := src[i]
		if c != '$' {
			out.WriteByte(c)
			continue
		}
		if i+1 >= len(src) {
			out.WriteByte('$')
			continue
		}

		switch {
		case src[i+1] == '$':
			out.WriteByte('$')
			i++

		case src[i+1] == '{':
			end := bytes.IndexByte(src[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated variable reference near offset %d", i)
			}
			expr := string(src[i+2 : i+2+end])
			i += 2 + end

			name, op, def := splitDefault(expr)
			if !validVarName(name) {
				return nil, fmt.Errorf("invalid variable reference ${%s}", expr)
			}
			v, ok := lookup(name)
			switch {
			case op == ":-" && (!ok || v == ""):
				out.WriteString(def)
			case op == "-" && !ok:
				out.WriteString(def)
			default:
				out.WriteString(v)
			}

		default:
			j := i + 1
			for j < len(src) && isVarChar(src[j]) {
				j++
			}
			if j == i+1 {
				out.WriteByte('$')
				continue
			}
			if v, ok := lookup(string(src[i+1 : j])); ok {
				out.WriteString(v)
			}
			i = j - 1
		}
	}

	return out.Bytes(), nil
}

func splitDefault(expr string) (name, op, def string) {
	if idx := strings.Index(expr, ":-"); idx >= 0 {
		return expr[:idx], ":-", expr[idx+2:]
	}
	if idx := strings.Index(expr, "-"); idx >= 0 {
		return expr[:idx], "-", expr[idx+1:]
	}
	return expr, "", ""
}

func validVarName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isVarChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
