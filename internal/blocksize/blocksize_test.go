package blocksize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1048576", MiB},
		{"1M", MiB},
		{"1MiB", MiB},
		{"1MB", MB},
		{"1K", KiB},
		{"1KiB", KiB},
		{"1KB", KB},
		{"1G", GiB},
		{"1GB", GB},
		{"0", 0},
		{"512", 512},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "1TB", "1 MB"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestResolve(t *testing.T) {
	got, err := Resolve("1MiB")
	require.NoError(t, err)
	assert.Equal(t, MiB, got)

	got, err = Resolve(int64(4096))
	require.NoError(t, err)
	assert.Equal(t, int64(4096), got)

	got, err = Resolve(4096)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), got)

	_, err = Resolve(3.14)
	assert.Error(t, err)
}
