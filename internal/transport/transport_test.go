package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecTransportEchoesStdinToStdout(t *testing.T) {
	tr := NewExecTransport()
	sess, err := tr.Spawn(context.Background(), "cat")
	require.NoError(t, err)

	_, err = sess.Stdin.Write([]byte("hello\n"))
	require.NoError(t, err)

	line, err := sess.Stdout.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "hello\n", line)

	require.NoError(t, sess.Close())
}

func TestExecTransportSpawnFailureOnMissingCommand(t *testing.T) {
	tr := NewExecTransport()
	_, err := tr.Spawn(context.Background(), "blocksync-definitely-not-a-real-binary")
	assert.Error(t, err)
}
