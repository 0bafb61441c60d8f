package errkind

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapNilIsNil(t *testing.T) {
	require.NoError(t, Wrap(Network, nil, "no-op"))
}

func TestWrapTagsKindAndMessage(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrap(ClientImport, base, "persisting block")

	require.Error(t, wrapped)
	require.Contains(t, wrapped.Error(), "boom")

	kind, ok := Of(wrapped)
	require.True(t, ok)
	require.Equal(t, ClientImport, kind)
}

func TestOfReportsFalseForPlainError(t *testing.T) {
	_, ok := Of(errors.New("untagged"))
	require.False(t, ok)
}

func TestKindStringIsStable(t *testing.T) {
	require.Equal(t, "crfg_safety", CrfgSafety.String())
	require.Equal(t, "unknown", Kind(255).String())
}
