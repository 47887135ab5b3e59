// Package route estimates stop-to-stop distance and van travel time.
// Stops are visited in the order given; no sequencing optimization is attempted.
package route

import (
	"math"
	"math/rand"
)

const (
	KmPerDegreeLat  = 111.0 // km per degree of latitude
	KmPerDegreeLon  = 85.0  // km per degree of longitude at the reference latitude
	DetourFactor    = 1.3   // road network vs. straight line
	BaseSpeedKmh    = 30.0
	CustomerMinutes = 5.0 // fixed hand-over time per stop

	minParkingMinutes = 2.0
	maxParkingMinutes = 15.0
)

// Point is a geographic location in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Distance returns the detour-adjusted Manhattan distance in km.
func Distance(a, b Point) float64 {
	dLat := math.Abs(a.Lat-b.Lat) * KmPerDegreeLat
	dLon := math.Abs(a.Lon-b.Lon) * KmPerDegreeLon
	return (dLat + dLon) * DetourFactor
}

// TrafficMultiplier returns the congestion factor for an hour of day.
// Rush hours 08-10 and 18-20 are 1.5, midday 11-17 is 1.2, everything else 1.0.
func TrafficMultiplier(hour int) float64 {
	switch {
	case hour >= 8 && hour <= 10, hour >= 18 && hour <= 20:
		return 1.5
	case hour >= 11 && hour <= 17:
		return 1.2
	default:
		return 1.0
	}
}

// ParkingMinutes is linear in difficulty: 2 min at 1, 15 min at 10.
// Difficulty outside 1-10 is clamped.
func ParkingMinutes(difficulty int) float64 {
	d := math.Min(10, math.Max(1, float64(difficulty)))
	return minParkingMinutes + (d-1)*(maxParkingMinutes-minParkingMinutes)/9
}

// Estimator computes travel times with an optional seeded traffic-variability jitter.
// Not safe for concurrent use: the jitter stream belongs to a single run.
type Estimator struct {
	rng    *rand.Rand
	jitter float64
}

// NewEstimator creates an Estimator. With a nil rng or zero jitter, travel times are exact.
func NewEstimator(rng *rand.Rand, jitter float64) *Estimator {
	return &Estimator{rng: rng, jitter: jitter}
}

// DrivingMinutes is the time to cover km at the hour's traffic speed.
func (e *Estimator) DrivingMinutes(km float64, hour int) float64 {
	speed := BaseSpeedKmh / TrafficMultiplier(hour)
	return km / speed * 60 * e.jitterFactor()
}

// TravelMinutes is driving plus parking plus customer hand-over at one stop.
func (e *Estimator) TravelMinutes(km float64, hour, parkingDifficulty int) float64 {
	return e.DrivingMinutes(km, hour) + ParkingMinutes(parkingDifficulty) + CustomerMinutes
}

func (e *Estimator) jitterFactor() float64 {
	if e == nil || e.rng == nil || e.jitter <= 0 {
		return 1.0
	}
	return 1 + e.jitter*(2*e.rng.Float64()-1)
}

// Stop is one customer visit on a route.
type Stop struct {
	ID                string
	Location          Point
	Hour              int // hour of day the van drives to this stop
	ParkingDifficulty int
}

// Leg is the travel into one stop (or back to the depot).
type Leg struct {
	StopID  string
	Km      float64
	Minutes float64
}

// Metrics summarizes a route.
type Metrics struct {
	TotalMinutes float64
	TotalKm      float64
	Legs         []Leg // one per stop, plus the return to depot
}

// DepotStopID labels the return leg in Metrics.Legs.
const DepotStopID = "depot"

// RouteMetrics drives from the depot through stops in the given order and back.
// The return leg uses the last stop's hour and carries no parking or hand-over time.
func (e *Estimator) RouteMetrics(depot Point, stops []Stop) Metrics {
	m := Metrics{Legs: make([]Leg, 0, len(stops)+1)}
	if len(stops) == 0 {
		return m
	}
	prev := depot
	for _, s := range stops {
		km := Distance(prev, s.Location)
		leg := Leg{StopID: s.ID, Km: km, Minutes: e.TravelMinutes(km, s.Hour, s.ParkingDifficulty)}
		m.Legs = append(m.Legs, leg)
		m.TotalKm += leg.Km
		m.TotalMinutes += leg.Minutes
		prev = s.Location
	}
	last := stops[len(stops)-1]
	km := Distance(prev, depot)
	back := Leg{StopID: DepotStopID, Km: km, Minutes: e.DrivingMinutes(km, last.Hour)}
	m.Legs = append(m.Legs, back)
	m.TotalKm += back.Km
	m.TotalMinutes += back.Minutes
	return m
}
