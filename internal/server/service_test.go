package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoNFA/internal/config"
	"GoNFA/internal/coordinator"
	"GoNFA/internal/definition"
	"GoNFA/internal/testutil"
)

func newPersistentService(t *testing.T, dir string) *Service {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.DataDir = dir
	svc, err := NewService(cfg, nil)
	require.NoError(t, err)
	return svc
}

func TestService_PersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := newPersistentService(t, dir)
	sample, err := first.Create(ctx, definition.Sample())
	require.NoError(t, err)
	endsWith, err := first.Create(ctx, testutil.EndsWithAB())
	require.NoError(t, err)

	second := newPersistentService(t, dir)
	assert.Equal(t, 2, second.Registry().Len())

	got, err := second.Registry().Get(sample.ID)
	require.NoError(t, err)
	assert.Equal(t, definition.Sample(), got.Definition)
	assert.True(t, got.CreatedAt.Equal(sample.CreatedAt))

	resp, err := second.Simulate(ctx, endsWith.ID, "b,a,b")
	require.NoError(t, err)
	assert.True(t, resp.Accepted)

	require.NoError(t, second.Delete(ctx, sample.ID))

	third := newPersistentService(t, dir)
	assert.Equal(t, []string{endsWith.ID}, third.Registry().IDs())
}

func TestService_InMemoryByDefault(t *testing.T) {
	svc, err := NewService(config.DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), definition.Sample())
	require.NoError(t, err)
	assert.Nil(t, svc.store)
}

func TestService_Batch(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(config.DefaultConfig(), nil)
	require.NoError(t, err)

	sample, err := svc.Create(ctx, definition.Sample())
	require.NoError(t, err)
	cycle, err := svc.Create(ctx, testutil.EpsilonCycle())
	require.NoError(t, err)

	result, err := svc.Batch(ctx, coordinator.ModeVerify, []string{cycle.ID, sample.ID}, []string{"a", "A,B"})
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	require.Len(t, result.Decisions, 4)

	byTarget := map[string][]bool{}
	for _, d := range result.Decisions {
		byTarget[d.TargetID] = append(byTarget[d.TargetID], d.Accepted)
	}
	assert.Equal(t, []bool{false, true}, byTarget[sample.ID])
	assert.Equal(t, []bool{true, false}, byTarget[cycle.ID])
}
