package syncer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestLocalIdentical(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "src", []byte("aaaaaaaaaaaaaaaaaaaa"))
	dest := writeTemp(t, dir, "dest", []byte("aaaaaaaaaaaaaaaaaaaa"))

	d, err := StartLocalToLocal(Options{Src: src, Dest: dest, BlockSize: 10, Workers: 1, Wait: true})
	require.NoError(t, err)

	b := d.Status().Blocks()
	assert.Equal(t, int64(2), b.Same)
	assert.Equal(t, int64(0), b.Diff)
	assert.Equal(t, int64(2), b.Done)
	assert.Equal(t, 100.0, d.Status().Rate())

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("aaaaaaaaaaaaaaaaaaaa"), got)
}

func TestLocalSingleBlockDiff(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "src", []byte("1234567890"))
	dest := writeTemp(t, dir, "dest", []byte("12X4567890"))

	d, err := StartLocalToLocal(Options{Src: src, Dest: dest, BlockSize: 5, Workers: 1, Wait: true})
	require.NoError(t, err)

	b := d.Status().Blocks()
	assert.Equal(t, int64(1), b.Same)
	assert.Equal(t, int64(1), b.Diff)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("1234567890"), got)
}

func TestLocalParallelPartition(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "src", []byte("0123456789"))
	dest := writeTemp(t, dir, "dest", []byte("XXXXXXXXXX"))

	d, err := StartLocalToLocal(Options{Src: src, Dest: dest, BlockSize: 1, Workers: 2, Wait: true})
	require.NoError(t, err)

	b := d.Status().Blocks()
	assert.Equal(t, int64(10), b.Diff)
	assert.Equal(t, int64(0), b.Same)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), got)
}

func TestSuspendResumeProgress(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "src", []byte("0123456789"))
	dest := writeTemp(t, dir, "dest", []byte("XXXXXXXXXX"))

	d, err := StartLocalToLocal(Options{
		Src: src, Dest: dest, BlockSize: 1, Workers: 1, Wait: false,
		SyncTick: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	d.Suspend()

	before := d.Status().Blocks().Done
	time.Sleep(120 * time.Millisecond)
	after := d.Status().Blocks().Done
	assert.Equal(t, before, after)

	d.Resume()
	d.Wait()
	assert.Equal(t, int64(10), d.Status().Blocks().Done)
}

func TestDryRunDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "src", []byte("1234567890"))
	dest := writeTemp(t, dir, "dest", []byte("12X4567890"))

	d, err := StartLocalToLocal(Options{Src: src, Dest: dest, BlockSize: 5, Workers: 1, Wait: true, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Status().Blocks().Diff)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("12X4567890"), got)
}

func TestCancelStopsWorker(t *testing.T) {
	dir := t.TempDir()
	content := make([]byte, 1000)
	src := writeTemp(t, dir, "src", content)
	dest := writeTemp(t, dir, "dest", append([]byte{}, content...))

	d, err := StartLocalToLocal(Options{
		Src: src, Dest: dest, BlockSize: 1, Workers: 1, Wait: false,
		SyncTick: 2 * time.Millisecond,
	})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	d.Cancel()
	d.Wait()

	assert.True(t, d.Canceled())
	assert.True(t, d.Finished())
	assert.Less(t, d.Status().Blocks().Done, int64(1000))
}
