package prompt_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/UnknownOlympus/gaia/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_Confirm(t *testing.T) {
	ctx := t.Context()

	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "yes\n", want: true},
		{name: "short yes with spaces", input: "  Y \n", want: true},
		{name: "upper case", input: "YES\n", want: true},
		{name: "no", input: "no\n", want: false},
		{name: "anything else", input: "sure\n", want: false},
		{name: "end of input", input: "", want: false},
		{name: "yes without newline", input: "y", want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			terminal := prompt.NewTerminal(strings.NewReader(tc.input), &out)

			got, err := terminal.Confirm(ctx, "Download into data?")

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, "Download into data? (yes/no)?: ", out.String())
		})
	}

	t.Run("answers are read in sequence", func(t *testing.T) {
		terminal := prompt.NewTerminal(strings.NewReader("y\nn\n"), &bytes.Buffer{})

		first, err := terminal.Confirm(ctx, "first")
		require.NoError(t, err)
		second, err := terminal.Confirm(ctx, "second")
		require.NoError(t, err)

		assert.True(t, first)
		assert.False(t, second)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		terminal := prompt.NewTerminal(strings.NewReader("y\n"), &bytes.Buffer{})

		got, err := terminal.Confirm(cctx, "question")

		require.ErrorIs(t, err, context.Canceled)
		assert.False(t, got)
	})
}

func TestAlways(t *testing.T) {
	yes, err := prompt.Always(true).Confirm(t.Context(), "anything")
	require.NoError(t, err)
	assert.True(t, yes)

	no, err := prompt.Always(false).Confirm(t.Context(), "anything")
	require.NoError(t, err)
	assert.False(t, no)
}
