package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
	short bool
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string, kind InputKind) ([][]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), texts...))
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if f.short {
		return [][]float32{}, nil
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := float32(len(t))
		if kind == KindDocument {
			v = -v
		}
		out[i] = []float32{v}
	}
	return out, nil
}

func TestEmbedOne(t *testing.T) {
	vec, err := EmbedOne(context.Background(), &fakeEmbedder{}, "abc", KindQuery)
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, vec)

	_, err = EmbedOne(context.Background(), &fakeEmbedder{short: true}, "abc", KindQuery)
	assert.ErrorIs(t, err, ErrCountMismatch)

	boom := errors.New("boom")
	_, err = EmbedOne(context.Background(), &fakeEmbedder{err: boom}, "abc", KindQuery)
	assert.ErrorIs(t, err, boom)
}

func TestCachedEmbedder(t *testing.T) {
	inner := &fakeEmbedder{}
	cached, err := NewCachedEmbedder(inner, 10)
	require.NoError(t, err)

	ctx := context.Background()

	first, err := cached.Embed(ctx, []string{"a", "bb"}, KindQuery)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, first)

	second, err := cached.Embed(ctx, []string{"bb", "ccc", "a"}, KindQuery)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2}, {3}, {1}}, second)

	require.Len(t, inner.calls, 2)
	assert.Equal(t, []string{"ccc"}, inner.calls[1], "only uncached texts go to the inner embedder")

	doc, err := cached.Embed(ctx, []string{"a"}, KindDocument)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{-1}}, doc, "query and document vectors are cached separately")
	assert.Equal(t, 4, cached.Len())
}

func TestCachedEmbedder_Error(t *testing.T) {
	boom := errors.New("boom")
	cached, err := NewCachedEmbedder(&fakeEmbedder{err: boom}, 0)
	require.NoError(t, err)

	_, err = cached.Embed(context.Background(), []string{"a"}, KindQuery)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cached.Len())
}

func TestGoogleTaskType(t *testing.T) {
	assert.Equal(t, "RETRIEVAL_QUERY", googleTaskType(KindQuery))
	assert.Equal(t, "RETRIEVAL_DOCUMENT", googleTaskType(KindDocument))
}

func TestGoogleEmbedder_Config(t *testing.T) {
	e := &GoogleEmbedder{model: DefaultGoogleModel, dimension: 768}
	cfg := e.embedConfig(KindDocument)

	require.NotNil(t, cfg.OutputDimensionality)
	assert.Equal(t, int32(768), *cfg.OutputDimensionality)
	assert.Equal(t, "RETRIEVAL_DOCUMENT", cfg.TaskType)

	e.dimension = 0
	assert.Nil(t, e.embedConfig(KindQuery).OutputDimensionality)
}
