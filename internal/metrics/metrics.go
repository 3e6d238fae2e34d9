// Package metrics exposes per-transfer counters and gauges as a
// Prometheus collector. It is the domain analog of the retrieval pack's
// TCP-statistics exporters (runZeroInc-sockstats, m-lab-tcp-info): those
// instrument kernel-tracked TCP connection counters, this instruments the
// equivalent counters the reliability engine itself tracks for its
// UDP-based transfer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/tmutex"
)

// Stats holds the raw counters and gauges for one sender or receiver
// run. Every field is mutated by the engine's single goroutine and read
// by the Collector's Collect method from whatever goroutine Prometheus's
// HTTP handler happens to run on; mu serializes that one cross-goroutine
// boundary.
type Stats struct {
	mu tmutex.Mutex

	segmentsSent              uint64
	segmentsRetransmitted     uint64
	segmentsFastRetransmitted uint64
	segmentsSacked            uint64
	duplicateAcks             uint64
	bytesDelivered            uint64
	malformedDatagrams        uint64

	srtt            time.Duration
	rto             time.Duration
	windowOccupancy int
}

// NewStats returns a ready-to-use Stats.
func NewStats() *Stats {
	s := &Stats{}
	s.mu.Init()
	return s
}

func (s *Stats) IncSegmentsSent() {
	s.mu.Lock()
	s.segmentsSent++
	s.mu.Unlock()
}

func (s *Stats) IncRetransmitted() {
	s.mu.Lock()
	s.segmentsRetransmitted++
	s.mu.Unlock()
}

func (s *Stats) IncFastRetransmitted() {
	s.mu.Lock()
	s.segmentsFastRetransmitted++
	s.mu.Unlock()
}

func (s *Stats) IncSacked() {
	s.mu.Lock()
	s.segmentsSacked++
	s.mu.Unlock()
}

func (s *Stats) IncDuplicateAcks() {
	s.mu.Lock()
	s.duplicateAcks++
	s.mu.Unlock()
}

func (s *Stats) AddBytesDelivered(n int) {
	s.mu.Lock()
	s.bytesDelivered += uint64(n)
	s.mu.Unlock()
}

func (s *Stats) IncMalformedDatagrams() {
	s.mu.Lock()
	s.malformedDatagrams++
	s.mu.Unlock()
}

func (s *Stats) SetRTT(srtt, rto time.Duration) {
	s.mu.Lock()
	s.srtt = srtt
	s.rto = rto
	s.mu.Unlock()
}

func (s *Stats) SetWindowOccupancy(n int) {
	s.mu.Lock()
	s.windowOccupancy = n
	s.mu.Unlock()
}

func (s *Stats) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		segmentsSent:              s.segmentsSent,
		segmentsRetransmitted:     s.segmentsRetransmitted,
		segmentsFastRetransmitted: s.segmentsFastRetransmitted,
		segmentsSacked:            s.segmentsSacked,
		duplicateAcks:             s.duplicateAcks,
		bytesDelivered:            s.bytesDelivered,
		malformedDatagrams:        s.malformedDatagrams,
		srtt:                      s.srtt,
		rto:                       s.rto,
		windowOccupancy:           s.windowOccupancy,
	}
}

// Collector adapts a Stats into a prometheus.Collector, labeled with the
// run's role (sender/receiver) and session id.
type Collector struct {
	stats *Stats

	segmentsSent              *prometheus.Desc
	segmentsRetransmitted     *prometheus.Desc
	segmentsFastRetransmitted *prometheus.Desc
	segmentsSacked            *prometheus.Desc
	duplicateAcks             *prometheus.Desc
	bytesDelivered            *prometheus.Desc
	malformedDatagrams        *prometheus.Desc
	srtt                      *prometheus.Desc
	rto                       *prometheus.Desc
	windowOccupancy           *prometheus.Desc
}

// NewCollector builds a Collector over stats, labeling every exported
// metric with role ("sender" or "receiver") and sessionID.
func NewCollector(stats *Stats, role, sessionID string) *Collector {
	labels := prometheus.Labels{"role": role, "session_id": sessionID}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("filexfer_"+name, help, nil, labels)
	}

	return &Collector{
		stats:                     stats,
		segmentsSent:              desc("segments_sent_total", "Total segments sent, including retransmissions."),
		segmentsRetransmitted:     desc("segments_retransmitted_total", "Total segments retransmitted on RTO, fast retransmit or hole-fill."),
		segmentsFastRetransmitted: desc("segments_fast_retransmitted_total", "Total segments sent via fast retransmit."),
		segmentsSacked:            desc("segments_sacked_total", "Total segments marked sacked by a selective-ack report."),
		duplicateAcks:             desc("duplicate_acks_total", "Total duplicate cumulative acks observed."),
		bytesDelivered:            desc("bytes_delivered_total", "Total payload bytes delivered to the sink in order."),
		malformedDatagrams:        desc("malformed_datagrams_total", "Total datagrams dropped for being too short or empty."),
		srtt:                      desc("srtt_seconds", "Current smoothed round-trip time estimate."),
		rto:                       desc("rto_seconds", "Current retransmission timeout."),
		windowOccupancy:           desc("window_occupancy_segments", "Segments currently outstanding in the sender window."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.segmentsSent
	ch <- c.segmentsRetransmitted
	ch <- c.segmentsFastRetransmitted
	ch <- c.segmentsSacked
	ch <- c.duplicateAcks
	ch <- c.bytesDelivered
	ch <- c.malformedDatagrams
	ch <- c.srtt
	ch <- c.rto
	ch <- c.windowOccupancy
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.snapshot()

	ch <- prometheus.MustNewConstMetric(c.segmentsSent, prometheus.CounterValue, float64(snap.segmentsSent))
	ch <- prometheus.MustNewConstMetric(c.segmentsRetransmitted, prometheus.CounterValue, float64(snap.segmentsRetransmitted))
	ch <- prometheus.MustNewConstMetric(c.segmentsFastRetransmitted, prometheus.CounterValue, float64(snap.segmentsFastRetransmitted))
	ch <- prometheus.MustNewConstMetric(c.segmentsSacked, prometheus.CounterValue, float64(snap.segmentsSacked))
	ch <- prometheus.MustNewConstMetric(c.duplicateAcks, prometheus.CounterValue, float64(snap.duplicateAcks))
	ch <- prometheus.MustNewConstMetric(c.bytesDelivered, prometheus.CounterValue, float64(snap.bytesDelivered))
	ch <- prometheus.MustNewConstMetric(c.malformedDatagrams, prometheus.CounterValue, float64(snap.malformedDatagrams))
	ch <- prometheus.MustNewConstMetric(c.srtt, prometheus.GaugeValue, snap.srtt.Seconds())
	ch <- prometheus.MustNewConstMetric(c.rto, prometheus.GaugeValue, snap.rto.Seconds())
	ch <- prometheus.MustNewConstMetric(c.windowOccupancy, prometheus.GaugeValue, float64(snap.windowOccupancy))
}
