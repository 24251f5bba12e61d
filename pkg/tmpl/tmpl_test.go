package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commitData struct {
	Iteration int
	Done      int
	Refs      []string
	Agent     string
}

func TestRender_Fields(t *testing.T) {
	got, err := Render("ralph: iteration {{ .Iteration }} ({{ .Agent }})", commitData{Iteration: 4, Agent: "claude"})
	require.NoError(t, err)
	assert.Equal(t, "ralph: iteration 4 (claude)", got)

	got, err = Render("no fields here", nil)
	require.NoError(t, err)
	assert.Equal(t, "no fields here", got)
}

func TestRender_Errors(t *testing.T) {
	_, err := Render("{{ .Missing }}", map[string]string{"Agent": "claude"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render template")

	_, err = Render("{{ .Agent }", commitData{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse template")
}

func TestRender_Funcs(t *testing.T) {
	data := commitData{Done: 3, Refs: []string{"/src/a", "/src/b"}}

	cases := map[string]string{
		`{{ join .Refs ", " }}`:         "/src/a, /src/b",
		`{{ bullets .Refs }}`:           "- /src/a\n- /src/b",
		`{{ .Agent | default "none" }}`: "none",
		`{{ trim "  padded \n" }}`:      "padded",
		`{{ plural .Done "task" }}`:     "3 tasks",
		`{{ plural 1 "task" }}`:         "1 task",
	}
	for text, want := range cases {
		got, err := Render(text, data)
		require.NoError(t, err, text)
		assert.Equal(t, want, got, text)
	}
}

func TestBullets_Empty(t *testing.T) {
	assert.Empty(t, bullets(nil))
}
