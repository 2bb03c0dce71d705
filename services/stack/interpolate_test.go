package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestInterpolate(t *testing.T) {
	env := map[string]string{
		"IMAGE": "mysql:8.0",
		"EMPTY": "",
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare variable", in: "image: $IMAGE", want: "image: mysql:8.0"},
		{name: "braced variable", in: "image: ${IMAGE}", want: "image: mysql:8.0"},
		{name: "unset expands empty", in: "v: [$MISSING]", want: "v: []"},
		{name: "default for unset", in: "p: ${MISSING:-secret}", want: "p: secret"},
		{name: "colon default covers empty", in: "p: ${EMPTY:-fallback}", want: "p: fallback"},
		{name: "plain default keeps empty", in: "p: ${EMPTY-fallback}", want: "p: "},
		{name: "plain default for unset", in: "p: ${MISSING-fallback}", want: "p: fallback"},
		{name: "escaped dollar", in: "p: $$IMAGE", want: "p: $IMAGE"},
		{name: "dollar before non-name", in: "p: 5$ and $ alone", want: "p: 5$ and $ alone"},
		{name: "trailing dollar", in: "p: cost$", want: "p: cost$"},
		{name: "name stops at punctuation", in: "u: $IMAGE/tag", want: "u: mysql:8.0/tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interpolate([]byte(tt.in), lookupFrom(env))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestInterpolateErrors(t *testing.T) {
	_, err := Interpolate([]byte("p: ${UNTERMINATED"), lookupFrom(nil))
	assert.Error(t, err)

	_, err = Interpolate([]byte("p: ${9BAD}"), lookupFrom(nil))
	assert.Error(t, err)

	_, err = Interpolate([]byte("p: ${}"), lookupFrom(nil))
	assert.Error(t, err)
}

func TestValidVarName(t *testing.T) {
	assert.True(t, validVarName("FOO"))
	assert.True(t, validVarName("_private"))
	assert.True(t, validVarName("A1_B2"))
	assert.False(t, validVarName(""))
	assert.False(t, validVarName("1A"))
	assert.False(t, validVarName("WITH-DASH"))
}
