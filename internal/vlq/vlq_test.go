package vlq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, "A"},
		{1, "C"},
		{-1, "D"},
		{5, "K"},
		{-5, "L"},
		{15, "e"},
		{-15, "f"},
		{16, "gB"},
		{1876, "o1D"},
		{-485223, "v2zd"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, EncodeString(c.n), "encoding %d", c.n)
	}
}
