package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteHelperProtocol(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dest")

	var in bytes.Buffer
	in.WriteString(path + "\n")
	in.WriteString("20\n")
	in.WriteString("20\n")
	in.WriteString("0\n")
	in.WriteString("1\n")
	in.WriteString("2")
	in.WriteString("20\n")
	in.WriteString("aaaaaaaaaaaaaaaaaaaa")

	require.NoError(t, run(&in))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("aaaaaaaaaaaaaaaaaaaa"), got)
}
