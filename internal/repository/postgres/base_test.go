package postgres

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/clinicore/patient-registry/pkg/metrics"
)

func TestObserveCountsOperations(t *testing.T) {
	m := metrics.NewTestMetrics()
	r := BaseRepository{metrics: m}

	r.observe("patient_get", time.Now(), nil)
	r.observe("patient_get", time.Now(), errors.New("connection reset"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("patient_get", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("patient_get", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DatabaseLatency))
}

func TestObserveTreatsMissingRowsAsSuccess(t *testing.T) {
	m := metrics.NewTestMetrics()
	r := BaseRepository{metrics: m}

	r.observe("patient_get", time.Now(), sql.ErrNoRows)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("patient_get", "success")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("patient_get", "error")))
}

func TestObserveWithoutMetricsIsNoOp(t *testing.T) {
	var r BaseRepository
	assert.NotPanics(t, func() { r.observe("patient_get", time.Now(), nil) })
}
