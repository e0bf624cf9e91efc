package cmdutil

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) (*bytes.Buffer, *int) {
	t.Helper()

	var buf bytes.Buffer
	code := -1

	oldStderr, oldExit := stderr, exit
	stderr = &buf
	exit = func(c int) { code = c }
	t.Cleanup(func() { stderr, exit = oldStderr, oldExit })

	return &buf, &code
}

func TestCheck(t *testing.T) {
	buf, code := capture(t)

	Check(nil)
	assert.Equal(t, -1, *code)
	assert.Zero(t, buf.Len())

	Check(errors.New("segment 3 of 5 at 0x0040: write enable: bus fault"))
	assert.Equal(t, 1, *code)
	assert.Equal(t, "Error: segment 3 of 5 at 0x0040: write enable: bus fault\n", buf.String())
}

func TestCheckf(t *testing.T) {
	buf, code := capture(t)

	Checkf(errors.New("no such file"), "open %s", "image.hex")
	assert.Equal(t, 1, *code)
	assert.Equal(t, "Error: open image.hex: no such file\n", buf.String())
}

func TestWarnf(t *testing.T) {
	buf, code := capture(t)

	Warnf("address %#x truncated", 0x1F0)
	assert.Equal(t, -1, *code)
	assert.Equal(t, "WARNING: address 0x1f0 truncated\n", buf.String())
}
