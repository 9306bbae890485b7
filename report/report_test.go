package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnified(t *testing.T) {
	patch, err := Unified("Entities/a.xml", []byte("one\ntwo\nthree\n"), []byte("one\nTWO\nthree\n"))
	require.NoError(t, err)

	assert.Contains(t, patch, "--- a/Entities/a.xml")
	assert.Contains(t, patch, "+++ b/Entities/a.xml")
	assert.Contains(t, patch, "-two")
	assert.Contains(t, patch, "+TWO")
	assert.Contains(t, patch, "@@")
}

func TestRender_TextBinaryAndOversize(t *testing.T) {
	oldRoot, newRoot := t.TempDir(), t.TempDir()

	write := func(root, name string, content []byte) {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(root, name)), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(root, name), content, 0644))
	}
	write(oldRoot, "text.xml", []byte("a\n"))
	write(newRoot, "text.xml", []byte("b\n"))
	write(oldRoot, "blob.bin", []byte{0x00, 0x01})
	write(newRoot, "blob.bin", []byte{0x00, 0x02, 0x03})
	write(oldRoot, "big.txt", bytes.Repeat([]byte("x\n"), 100))
	write(newRoot, "big.txt", bytes.Repeat([]byte("y\n"), 100))

	var out bytes.Buffer
	err := Render(&out, oldRoot, newRoot, []string{"text.xml", "blob.bin", "big.txt"}, 50, "dracula")
	require.NoError(t, err)

	rendered := out.String()
	assert.Contains(t, rendered, "text.xml")
	assert.Contains(t, rendered, "(binary file changed, 2 -> 3 bytes)")
	assert.Contains(t, rendered, "(diff omitted, oversize)")
}

func TestRender_MissingFileFails(t *testing.T) {
	var out bytes.Buffer
	err := Render(&out, t.TempDir(), t.TempDir(), []string{"nope.txt"}, 0, "dracula")
	assert.Error(t, err)
}
