package printer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Printf("plain %d", 1)
	p.Successf("saved %s", "config")
	p.Warnf("resume")
	p.Errorf("boom")
	p.CheckItem("git", "/usr/bin/git")
	p.Section("Next Steps")

	out := buf.String()
	assert.Contains(t, out, "plain 1\n")
	assert.Contains(t, out, "saved config")
	assert.Contains(t, out, "resume")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "git")
	assert.Contains(t, out, "/usr/bin/git")
	assert.Contains(t, out, "Next Steps")
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	ctx := NewContext(context.Background(), p)

	assert.Same(t, p, Ctx(ctx))
	assert.NotNil(t, Ctx(context.Background()))
}
