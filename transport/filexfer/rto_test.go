package filexfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRTTEstimatorInitialSample(t *testing.T) {
	r := newRTTEstimator()
	require.Equal(t, initRTO, r.rto)

	r.addSample(200 * time.Millisecond)
	require.Equal(t, 200*time.Millisecond, r.srtt)
	require.Equal(t, 100*time.Millisecond, r.rttvar)
}

func TestRTTEstimatorClampsToMinRTO(t *testing.T) {
	r := newRTTEstimator()
	for i := 0; i < 20; i++ {
		r.addSample(1 * time.Millisecond)
	}
	require.GreaterOrEqual(t, r.rto, minRTO)
}

func TestRTTEstimatorClampsToMaxRTO(t *testing.T) {
	r := newRTTEstimator()
	r.addSample(10 * time.Second)
	require.LessOrEqual(t, r.rto, maxRTO)
}

func TestRTTEstimatorConverges(t *testing.T) {
	r := newRTTEstimator()
	for i := 0; i < 50; i++ {
		r.addSample(100 * time.Millisecond)
	}
	require.InDelta(t, float64(100*time.Millisecond), float64(r.srtt), float64(2*time.Millisecond))
}
