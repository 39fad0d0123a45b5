package metrics

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"marketsignal/shared"
)

func TestMetrics(t *testing.T) {
	// Ensure the instrumentation counts on its dedicated registry.
	m := NewMetrics()

	m.TicksDelivered.Inc()
	m.TicksDelivered.Inc()
	m.ActiveSubscriptions.Set(3)
	m.Reconnects.Inc()
	m.RecordEntrySignal(shared.Long)
	m.RecordEntrySignal(shared.Long)
	m.RecordExitSignal(shared.Short)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicksDelivered))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveSubscriptions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reconnects))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Signals.WithLabelValues("entry", shared.Long.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Signals.WithLabelValues("exit", shared.Short.String())))

	assert.NotNil(t, m.Handler())
}
