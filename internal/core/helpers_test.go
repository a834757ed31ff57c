package core_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"samplevault/internal/core"
	"samplevault/pkg/domain"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func sample(id, name string) domain.SampleRecord {
	return domain.SampleRecord{
		ID: id,
		Metadata: domain.DisplayMetadata{
			Name:        name,
			CollectedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
			SourceTool:  "core_drill",
		},
		Layers: []domain.Layer{{Name: "topsoil", DepthEnd: 0.3}, {Name: "clay", DepthStart: 0.3, DepthEnd: 1}},
	}
}

func sampleIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%02d", prefix, i)
	}
	return ids
}

// newTestVault builds a vault on a fake clock without a snapshot store unless
// one is passed in opts.
func newTestVault(t *testing.T, cfg core.Config, opts ...core.Option) (*core.Vault, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	opts = append([]core.Option{core.WithClock(clock.Now)}, opts...)
	v, err := core.NewVault(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close(context.Background()) })
	return v, clock
}

func admitN(t *testing.T, v *core.Vault, loc domain.Location, prefix string, n int) []string {
	t.Helper()
	ids := sampleIDs(prefix, n)
	for _, id := range ids {
		require.NoError(t, v.Admit(sample(id, "Sample "+id), loc))
	}
	return ids
}

// audit fails the test when any custody invariant is broken.
func audit(t *testing.T, v *core.Vault) {
	t.Helper()
	res, err := v.Verify(context.Background())
	require.NoError(t, err, "violations: %+v", res.Violations)
	require.Empty(t, res.Violations)
}
