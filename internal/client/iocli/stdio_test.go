package iocli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

func newFileStdio(t *testing.T, input string) (*Stdio, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.txt")
	out, err := os.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = out.Close() })
	return &Stdio{in: strings.NewReader(input), out: out}, path
}

func TestStdio_Output(t *testing.T) {
	stdio, path := newFileStdio(t, "")

	stdio.Println("hello", "world")
	stdio.Printf("test %d %s\n", 1, "abc")
	_, err := stdio.Write([]byte("raw"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world\ntest 1 abc\nraw", string(data))
}

func TestStdio_ReadInput(t *testing.T) {
	stdio, _ := newFileStdio(t, "  yes  \n")

	result, err := stdio.ReadInput("Prompt: ")
	require.NoError(t, err)
	assert.Equal(t, "yes", result)
}

func TestStdio_ReadInputWithoutNewline(t *testing.T) {
	stdio, _ := newFileStdio(t, "y")

	result, err := stdio.ReadInput("Prompt: ")
	require.NoError(t, err)
	assert.Equal(t, "y", result)
}

func TestStdio_ReadInputEmpty(t *testing.T) {
	stdio, _ := newFileStdio(t, "")

	_, err := stdio.ReadInput("Prompt: ")
	require.Error(t, err)
}

// Обычный файл не является терминалом
func TestStdio_IsTerminal(t *testing.T) {
	stdio, _ := newFileStdio(t, "")
	assert.False(t, stdio.IsTerminal())
}
