package engine

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	f := newFixture(t, WithMetrics(m))
	ctx := context.Background()
	addr := f.addr(t, brian)

	require.NoError(t, f.engine.CreateUserStats(ctx, brian, addr, "brian"))
	_ = f.engine.CreateUserStats(ctx, brian, addr, "again")
	_ = f.engine.ChangeUserName(ctx, alice, addr, "alice")
	require.NoError(t, f.engine.ChangeUserName(ctx, brian, addr, "tom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("create", "AlreadyExists")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("rename", "AddressMismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("rename", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsCreated))
	assert.Equal(t, 4, testutil.CollectAndCount(reg, "userstats_operations_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "userstats_derive_duration_seconds"))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation(OpCreate, OutcomeOK)
		m.ObserveDerive(time.Now())
	})
}
