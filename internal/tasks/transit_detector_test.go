package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sun_transit/internal/detector"
	"sun_transit/internal/models"
	"sun_transit/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

// mockSource returns queued snapshots or errors, one per call
type mockSource struct {
	mu        sync.Mutex
	snapshots [][]models.AircraftReport
	errors    []error
	calls     int
	radius    float64
	center    models.Observer
}

func (m *mockSource) Fetch(ctx context.Context, center models.Observer, radiusKm float64) ([]models.AircraftReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++
	m.radius = radiusKm
	m.center = center
	if i < len(m.errors) && m.errors[i] != nil {
		return nil, m.errors[i]
	}
	if i < len(m.snapshots) {
		return m.snapshots[i], nil
	}
	return nil, nil
}

func (m *mockSource) Close() error { return nil }

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fixedSun always reports the same position
type fixedSun struct {
	pos models.CelestialPosition
}

func (f fixedSun) Position(time.Time, float64, float64) models.CelestialPosition { return f.pos }

// mockNotifier records matches and fails the ones listed in failFor
type mockNotifier struct {
	mu      sync.Mutex
	sent    []models.TransitMatch
	tried   []string
	ctxErrs []error
	failFor map[string]bool
}

func (m *mockNotifier) Notify(ctx context.Context, match models.TransitMatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tried = append(m.tried, match.Callsign)
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	if m.failFor[match.Callsign] {
		return assert.AnError
	}
	m.sent = append(m.sent, match)
	return nil
}

func (m *mockNotifier) Close() error { return nil }

// deadlineSource answers only once the fetch deadline has passed
type deadlineSource struct {
	reports []models.AircraftReport
}

func (d deadlineSource) Fetch(ctx context.Context, _ models.Observer, _ float64) ([]models.AircraftReport, error) {
	<-ctx.Done()
	return d.reports, nil
}

func (deadlineSource) Close() error { return nil }

type mockRegistry struct {
	aircraft map[string]*models.Aircraft
	err      error
}

func (m *mockRegistry) FindByICAO(icao24 string) (*models.Aircraft, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.aircraft[icao24], nil
}

var observer = models.Observer{}

// sunDueEast puts the sun low in the east, where an aircraft one degree east
// of the observer at ground level appears
var sunDueEast = fixedSun{pos: models.CelestialPosition{Azimuth: 90, Altitude: 0}}

func eastAircraft(callsign, icao string) models.AircraftReport {
	return models.AircraftReport{ICAO: icao, Callsign: callsign, Lat: ptr(0), Lon: ptr(1), AltBaro: ptr(0)}
}

func westAircraft(callsign string) models.AircraftReport {
	return models.AircraftReport{Callsign: callsign, Lat: ptr(0), Lon: ptr(-1), AltBaro: ptr(0)}
}

func newTestDetector(t *testing.T, margin float64) *detector.Detector {
	d, err := detector.New(detector.Config{Observer: observer, Margin: margin})
	require.NoError(t, err)
	return d
}

func TestNewTransitDetector_Defaults(t *testing.T) {
	task := NewTransitDetector(TransitDetectorConfig{Detector: newTestDetector(t, 5)})

	assert.Equal(t, "transit_detector", task.Name())
	assert.Equal(t, 15*time.Second, task.Interval())
}

func TestTransitDetector_NotifiesMatches(t *testing.T) {
	source := &mockSource{snapshots: [][]models.AircraftReport{{
		eastAircraft("ANZ123", "c81e2a"),
		westAircraft("QFA44"),
		{Callsign: "NOALT", Lat: ptr(0), Lon: ptr(1)},
	}}}
	notifier := &mockNotifier{}
	now := time.Date(2025, time.January, 1, 0, 30, 0, 0, time.UTC)

	task := NewTransitDetector(TransitDetectorConfig{
		Source:   source,
		Sun:      sunDueEast,
		Detector: newTestDetector(t, 5),
		Notifier: notifier,
		RadiusKm: 100,
		Interval: time.Second,
	})
	task.now = func() time.Time { return now }

	require.NoError(t, task.Run(context.Background()))

	assert.Equal(t, 100.0, source.radius)
	assert.Equal(t, observer, source.center)

	require.Len(t, notifier.sent, 1)
	m := notifier.sent[0]
	assert.Equal(t, "ANZ123", m.Callsign)
	assert.InDelta(t, 0, m.Separation, 1e-6)
	assert.Equal(t, now, m.Timestamp)
	assert.Empty(t, m.Registration)
}

func TestTransitDetector_EnrichesFromRegistry(t *testing.T) {
	source := &mockSource{snapshots: [][]models.AircraftReport{{
		eastAircraft("ANZ123", "c81e2a"),
		eastAircraft("UNKNOWN", "ffffff"),
	}}}
	notifier := &mockNotifier{}
	registry := &mockRegistry{aircraft: map[string]*models.Aircraft{
		"c81e2a": {ICAO24: "c81e2a", Registration: "ZK-NZE", TypeCode: "B789", Operator: "Air New Zealand"},
	}}

	task := NewTransitDetector(TransitDetectorConfig{
		Source:   source,
		Sun:      sunDueEast,
		Detector: newTestDetector(t, 5),
		Notifier: notifier,
		Registry: registry,
	})

	require.NoError(t, task.Run(context.Background()))

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "ZK-NZE", notifier.sent[0].Registration)
	assert.Equal(t, "B789", notifier.sent[0].TypeCode)
	assert.Empty(t, notifier.sent[1].Registration)
}

func TestTransitDetector_RegistryErrorStillNotifies(t *testing.T) {
	source := &mockSource{snapshots: [][]models.AircraftReport{{eastAircraft("ANZ123", "c81e2a")}}}
	notifier := &mockNotifier{}

	task := NewTransitDetector(TransitDetectorConfig{
		Source:   source,
		Sun:      sunDueEast,
		Detector: newTestDetector(t, 5),
		Notifier: notifier,
		Registry: &mockRegistry{err: errors.New("database is locked")},
	})

	require.NoError(t, task.Run(context.Background()))
	assert.Len(t, notifier.sent, 1)
}

func TestTransitDetector_FetchErrorIsAbsorbed(t *testing.T) {
	source := &mockSource{errors: []error{errors.New("dial tcp: connection refused")}}
	notifier := &mockNotifier{}

	task := NewTransitDetector(TransitDetectorConfig{
		Source:   source,
		Sun:      sunDueEast,
		Detector: newTestDetector(t, 5),
		Notifier: notifier,
	})

	assert.NoError(t, task.Run(context.Background()))
	assert.Empty(t, notifier.tried)
}

func TestTransitDetector_NotifyFailureDoesNotStopOthers(t *testing.T) {
	source := &mockSource{snapshots: [][]models.AircraftReport{{
		eastAircraft("FIRST", ""),
		eastAircraft("SECOND", ""),
		eastAircraft("THIRD", ""),
	}}}
	notifier := &mockNotifier{failFor: map[string]bool{"FIRST": true}}

	task := NewTransitDetector(TransitDetectorConfig{
		Source:   source,
		Sun:      sunDueEast,
		Detector: newTestDetector(t, 5),
		Notifier: notifier,
	})

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, []string{"FIRST", "SECOND", "THIRD"}, notifier.tried)
	assert.Len(t, notifier.sent, 2)
}

func TestTransitDetector_NextCycleRunsAfterFetchError(t *testing.T) {
	source := &mockSource{
		errors:    []error{errors.New("network unreachable")},
		snapshots: [][]models.AircraftReport{nil, {eastAircraft("ANZ123", "c81e2a")}},
	}
	notifier := &mockNotifier{}

	task := NewTransitDetector(TransitDetectorConfig{
		Source:   source,
		Sun:      sunDueEast,
		Detector: newTestDetector(t, 5),
		Notifier: notifier,
		Interval: 10 * time.Millisecond,
	})

	s := scheduler.New(context.Background())
	s.AddTask(task)
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.sent) >= 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, source.callCount(), 2)
}

func TestTransitDetector_SlowFetchLeavesTimeToNotify(t *testing.T) {
	notifier := &mockNotifier{}

	task := NewTransitDetector(TransitDetectorConfig{
		Source:   deadlineSource{reports: []models.AircraftReport{eastAircraft("FIRST", ""), eastAircraft("SECOND", "")}},
		Sun:      sunDueEast,
		Detector: newTestDetector(t, 5),
		Notifier: notifier,
		Interval: 20 * time.Millisecond,
	})

	require.NoError(t, task.Run(context.Background()))

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, []error{nil, nil}, notifier.ctxErrs)
}

func TestTransitDetector_StopsNotifyingOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &mockSource{snapshots: [][]models.AircraftReport{{eastAircraft("ANZ123", "")}}}
	notifier := &mockNotifier{}

	task := NewTransitDetector(TransitDetectorConfig{
		Source:   source,
		Sun:      sunDueEast,
		Detector: newTestDetector(t, 5),
		Notifier: notifier,
	})

	require.NoError(t, task.Run(ctx))
	assert.Empty(t, notifier.tried)
}
