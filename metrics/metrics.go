// Package metrics provides lock-free diagnostic counters for impersonating
// connectors, using atomic operations so they stay cheap on the dial path.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics tracks what the connector layer did since startup.
//
// All counters are accessed exclusively through atomic operations, so one
// Metrics value may be shared by every connector and connection without
// extra locking. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// ConnectorsCreated counts successful CreateConnector calls.
	ConnectorsCreated uint64

	// SessionCachesCreated counts session cache initialisations. With a
	// single connector wrapper it never exceeds one.
	SessionCachesCreated uint64

	// FinalizationDegraded counts per-connection finalization steps the
	// engine could not apply. The connection proceeds with the closest
	// achievable fingerprint.
	FinalizationDegraded uint64

	// Handshakes counts completed TLS handshakes.
	Handshakes uint64

	// HandshakeFailures counts TLS handshakes that returned an error.
	HandshakeFailures uint64

	// startTime records when the metrics instance was created.
	startTime time.Time
}

// NewMetrics creates a Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) add(p *uint64) { atomic.AddUint64(p, 1) }

// IncConnectors records a created connector.
func (m *Metrics) IncConnectors() {
	if m != nil {
		m.add(&m.ConnectorsCreated)
	}
}

// IncSessionCaches records a session cache initialisation.
func (m *Metrics) IncSessionCaches() {
	if m != nil {
		m.add(&m.SessionCachesCreated)
	}
}

// IncDegraded records a finalization step that was skipped.
func (m *Metrics) IncDegraded() {
	if m != nil {
		m.add(&m.FinalizationDegraded)
	}
}

// IncHandshake records a handshake outcome.
func (m *Metrics) IncHandshake(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.add(&m.HandshakeFailures)
		return
	}
	m.add(&m.Handshakes)
}

// HandshakesPerSecond returns the average successful handshake rate since
// the Metrics instance was created.
func (m *Metrics) HandshakesPerSecond() float64 {
	if m == nil {
		return 0
	}
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(atomic.LoadUint64(&m.Handshakes)) / elapsed
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	ConnectorsCreated    uint64
	SessionCachesCreated uint64
	FinalizationDegraded uint64
	Handshakes           uint64
	HandshakeFailures    uint64
}

// Snapshot returns the current counter values. The loads are individual, so
// the copy may be slightly inconsistent under concurrent updates, which is
// acceptable for diagnostics.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		ConnectorsCreated:    atomic.LoadUint64(&m.ConnectorsCreated),
		SessionCachesCreated: atomic.LoadUint64(&m.SessionCachesCreated),
		FinalizationDegraded: atomic.LoadUint64(&m.FinalizationDegraded),
		Handshakes:           atomic.LoadUint64(&m.Handshakes),
		HandshakeFailures:    atomic.LoadUint64(&m.HandshakeFailures),
	}
}
