package metrics_test

import (
	"testing"

	"github.com/Astemirdum/elibrary-service/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCirculation(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := metrics.NewCirculation(reg)
	m.Register(reg)

	m.IncAction("borrow")
	m.IncAction("borrow")
	m.IncRejection("renew", "conflict")
	m.AddFine(35000)
	m.AddFine(0)
	m.AddOverdue(3)

	n, err := testutil.GatherAndCount(reg,
		"elibrary_circulation_actions_total",
		"elibrary_circulation_rejections_total",
		"elibrary_circulation_fines_amount_total",
		"elibrary_loans_marked_overdue_total",
	)
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestCirculation_Unregistered(t *testing.T) {
	t.Parallel()
	var m *metrics.Circulation
	m.IncAction("borrow")
	m.AddFine(10)

	m = new(metrics.Circulation)
	m.IncRejection("borrow", "conflict")
	m.AddOverdue(1)
}
