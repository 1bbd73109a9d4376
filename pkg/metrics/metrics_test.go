package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInitMetrics 重复初始化不会panic
func TestInitMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics()

	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, OrdersFailedTotal)
	assert.NotNil(t, StockConflictsTotal)
	assert.NotNil(t, PromotionChecksTotal)
}

func TestObserveOrderCreated(t *testing.T) {
	InitMetrics()
	before := counterValue(t, OrdersCreatedTotal)

	ObserveOrderCreated(120 * time.Millisecond)
	ObserveOrderCreated(80 * time.Millisecond)

	assert.Equal(t, before+2, counterValue(t, OrdersCreatedTotal))

	m := &dto.Metric{}
	require.NoError(t, OrderCreationDuration.(prometheus.Metric).Write(m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(2))
}

func TestLabelledCounters(t *testing.T) {
	InitMetrics()
	conflictBefore := counterValue(t, StockConflictsTotal.WithLabelValues("order"))
	restockedBefore := counterValue(t, OrdersCancelledTotal.WithLabelValues("true"))
	keptBefore := counterValue(t, OrdersCancelledTotal.WithLabelValues("false"))

	IncStockConflict("order")
	IncOrderCancelled(true)
	IncOrderCancelled(true)
	IncOrderCancelled(false)

	assert.Equal(t, conflictBefore+1, counterValue(t, StockConflictsTotal.WithLabelValues("order")))
	assert.Equal(t, restockedBefore+2, counterValue(t, OrdersCancelledTotal.WithLabelValues("true")))
	assert.Equal(t, keptBefore+1, counterValue(t, OrdersCancelledTotal.WithLabelValues("false")))
}

func TestTrackOrderInProgress(t *testing.T) {
	InitMetrics()
	before := gaugeValue(t, OrdersInProgress)

	done := TrackOrderInProgress()
	assert.Equal(t, before+1, gaugeValue(t, OrdersInProgress))

	done()
	assert.Equal(t, before, gaugeValue(t, OrdersInProgress))
}

func TestIncMessagePublished(t *testing.T) {
	InitMetrics()
	okBefore := counterValue(t, MessagesPublishedTotal.WithLabelValues("order.created", "success"))
	failBefore := counterValue(t, MessagesPublishedTotal.WithLabelValues("order.created", "failure"))

	IncMessagePublished("order.created", true)
	IncMessagePublished("order.created", false)

	assert.Equal(t, okBefore+1, counterValue(t, MessagesPublishedTotal.WithLabelValues("order.created", "success")))
	assert.Equal(t, failBefore+1, counterValue(t, MessagesPublishedTotal.WithLabelValues("order.created", "failure")))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, g.Write(m))
	return m.GetGauge().GetValue()
}
