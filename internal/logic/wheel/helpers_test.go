package wheel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cjeanneret/emecwheel/internal/rdb"
)

const epsilon = 1e-9

func builtinParams(t *testing.T) Parameters {
	t.Helper()
	p, err := LoadParameters(context.Background(), rdb.Builtin(), "ATLAS-R2-2016-01-00-01", "EMEC")
	require.NoError(t, err)
	return p
}

func mustNew(t *testing.T, v Variant, opts ...Option) *Calculator {
	t.Helper()
	c, err := New(v, 1, builtinParams(t), opts...)
	require.NoError(t, err)
	return c
}
