package sim

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DemandScenario is a coarse multiplier category on baseline order volume.
type DemandScenario string

const (
	ScenarioPessimistic DemandScenario = "pessimistic"
	ScenarioRealistic   DemandScenario = "realistic"
	ScenarioOptimistic  DemandScenario = "optimistic"
)

// Scenarios lists the demand scenarios in presentation order.
var Scenarios = []DemandScenario{ScenarioPessimistic, ScenarioRealistic, ScenarioOptimistic}

// Multiplier returns the volume multiplier for the scenario. Unknown scenarios map to 1.0.
func (s DemandScenario) Multiplier() float64 {
	switch s {
	case ScenarioPessimistic:
		return 0.6
	case ScenarioOptimistic:
		return 1.5
	default:
		return 1.0
	}
}

// Density is the regional housing density category.
type Density string

const (
	DensityUrban    Density = "urban"
	DensitySuburban Density = "suburban"
	DensityRural    Density = "rural"
)

// SpreadFactor scales the geographic noise around cluster centers.
func (d Density) SpreadFactor() float64 {
	switch d {
	case DensityUrban:
		return 0.3
	case DensityRural:
		return 1.0
	default:
		return 0.6
	}
}

// Config is the full scenario configuration. Loaded from YAML via LoadConfig(path),
// validated by Validate. The simulation engine trusts a validated Config and does not
// re-check ranges.
type Config struct {
	Regional      RegionalConfig      `yaml:"regional"`
	Pricing       PricingConfig       `yaml:"pricing"`
	Costs         CostConfig          `yaml:"costs"`
	Capacity      CapacityConfig      `yaml:"capacity"`
	Randomization RandomizationConfig `yaml:"randomization"`
	Elasticity    ElasticityConfig    `yaml:"elasticity"`
	Simulation    SimulationConfig    `yaml:"simulation"`
	Operations    OperationsConfig    `yaml:"operations"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
}

// RegionalConfig describes the served area.
type RegionalConfig struct {
	Dwellings             int     `yaml:"dwellings" validate:"gte=0"`
	Population            int     `yaml:"population" validate:"gte=0"`
	ParkingDifficulty     int     `yaml:"parking_difficulty" validate:"min=1,max=10"`
	Density               Density `yaml:"density" validate:"oneof=urban suburban rural"`
	WeeklyPenetrationRate float64 `yaml:"weekly_penetration_rate" validate:"gte=0,lte=1"`
	CenterLat             float64 `yaml:"center_lat" validate:"gte=-90,lte=90"`
	CenterLon             float64 `yaml:"center_lon" validate:"gte=-180,lte=180"`
}

// PricingConfig holds customer-facing prices. Discounts are fractions except SelfCheckDiscount,
// which is an absolute amount taken off the order.
type PricingConfig struct {
	WashPrice            float64 `yaml:"wash_price" validate:"gte=0"`
	DryPrice             float64 `yaml:"dry_price" validate:"gte=0"`
	SelfCheckDiscount    float64 `yaml:"self_check_discount" validate:"gte=0"`
	SubscriptionDiscount float64 `yaml:"subscription_discount" validate:"gte=0,lt=1"`
}

// CostConfig is read only by the finance consumers, never by the engine.
type CostConfig struct {
	DriverHourlyRate float64 `yaml:"driver_hourly_rate" validate:"gte=0"`
	WashCostPerKg    float64 `yaml:"wash_cost_per_kg" validate:"gte=0"`
	DryCostPerKg     float64 `yaml:"dry_cost_per_kg" validate:"gte=0"`
	WeeklyOverhead   float64 `yaml:"weekly_overhead" validate:"gte=0"`
	FuelPerKm        float64 `yaml:"fuel_per_km" validate:"gte=0"`
}

// CapacityConfig sizes the four resource pools.
type CapacityConfig struct {
	Vans                 int     `yaml:"vans" validate:"gte=0"`
	Drivers              int     `yaml:"drivers" validate:"gte=0"`
	WashMachines         int     `yaml:"wash_machines" validate:"gte=0"`
	DryMachines          int     `yaml:"dry_machines" validate:"gte=0"`
	OperatingHoursPerDay float64 `yaml:"operating_hours_per_day" validate:"gt=0,lte=24"`
}

// RandomizationConfig holds the seed and stochastic knobs.
type RandomizationConfig struct {
	Seed               int64          `yaml:"seed"`
	DemandScenario     DemandScenario `yaml:"demand_scenario" validate:"oneof=pessimistic realistic optimistic"`
	PeakStartHour      int            `yaml:"peak_start_hour" validate:"min=6,max=23"`
	PeakEndHour        int            `yaml:"peak_end_hour" validate:"min=6,max=23"`
	PeakMultiplier     float64        `yaml:"peak_multiplier" validate:"gte=0"`
	RefundRate         float64        `yaml:"refund_rate" validate:"gte=0,lte=1"`
	FailedDeliveryRate float64        `yaml:"failed_delivery_rate" validate:"gte=0,lte=1"`
	TrafficJitter      float64        `yaml:"traffic_jitter" validate:"gte=0,lte=0.5"`
}

// ElasticityConfig shapes demand response to price and service options.
type ElasticityConfig struct {
	PriceElasticity   float64 `yaml:"price_elasticity"`
	SelfCheckAdoption float64 `yaml:"self_check_adoption" validate:"gte=0,lte=1"`
	SubscriptionRatio float64 `yaml:"subscription_ratio" validate:"gte=0,lte=1"`
}

// SimulationConfig bounds the horizon.
type SimulationConfig struct {
	StartDate     string  `yaml:"start_date" validate:"datetime=2006-01-02"`
	DurationDays  int     `yaml:"duration_days" validate:"gt=0"`
	TimeSlotHours float64 `yaml:"time_slot_hours" validate:"gt=0,lte=24"`
}

// OperationsConfig holds per-stage processing constants and the engine's safety limits.
type OperationsConfig struct {
	IntakeMinutesPerItem float64 `yaml:"intake_minutes_per_item" validate:"gte=0"`
	ItemsPerKg           float64 `yaml:"items_per_kg" validate:"gte=0"`
	WashBaseMinutes      float64 `yaml:"wash_base_minutes" validate:"gte=0"`
	WashMinutesPerKg     float64 `yaml:"wash_minutes_per_kg" validate:"gte=0"`
	DryBaseMinutes       float64 `yaml:"dry_base_minutes" validate:"gte=0"`
	DryMinutesPerKg      float64 `yaml:"dry_minutes_per_kg" validate:"gte=0"`
	FoldMinutesPerKg     float64 `yaml:"fold_minutes_per_kg" validate:"gte=0"`
	MaxRetriesPerOrder   int     `yaml:"max_retries_per_order" validate:"gte=0"` // 0 = unlimited
	MaxIterations        int     `yaml:"max_iterations" validate:"gte=0"`        // 0 = derived from order count
}

// AnalysisConfig controls how utilization is estimated after the run.
type AnalysisConfig struct {
	UtilizationMethod string  `yaml:"utilization_method" validate:"oneof=routes ledger"`
	AvgStopsPerRoute  float64 `yaml:"avg_stops_per_route" validate:"gt=0"`
	AvgRouteHours     float64 `yaml:"avg_route_hours" validate:"gte=0"`
	AvgWashHours      float64 `yaml:"avg_wash_hours" validate:"gte=0"`
	AvgDryHours       float64 `yaml:"avg_dry_hours" validate:"gte=0"`
}

// DefaultConfig returns a complete, valid configuration for a mid-size suburban market.
func DefaultConfig() *Config {
	return &Config{
		Regional: RegionalConfig{
			Dwellings:             50000,
			Population:            120000,
			ParkingDifficulty:     5,
			Density:               DensitySuburban,
			WeeklyPenetrationRate: 0.01,
			CenterLat:             52.3676,
			CenterLon:             4.9041,
		},
		Pricing: PricingConfig{
			WashPrice:            7,
			DryPrice:             8,
			SelfCheckDiscount:    1.5,
			SubscriptionDiscount: 0.1,
		},
		Costs: CostConfig{
			DriverHourlyRate: 18,
			WashCostPerKg:    0.35,
			DryCostPerKg:     0.30,
			WeeklyOverhead:   1500,
			FuelPerKm:        0.15,
		},
		Capacity: CapacityConfig{
			Vans:                 3,
			Drivers:              4,
			WashMachines:         6,
			DryMachines:          6,
			OperatingHoursPerDay: 12,
		},
		Randomization: RandomizationConfig{
			Seed:               42,
			DemandScenario:     ScenarioRealistic,
			PeakStartHour:      17,
			PeakEndHour:        20,
			PeakMultiplier:     2.0,
			RefundRate:         0.02,
			FailedDeliveryRate: 0.03,
			TrafficJitter:      0.05,
		},
		Elasticity: ElasticityConfig{
			PriceElasticity:   1.2,
			SelfCheckAdoption: 0.3,
			SubscriptionRatio: 0.25,
		},
		Simulation: SimulationConfig{
			StartDate:     "2025-01-06",
			DurationDays:  7,
			TimeSlotHours: 2,
		},
		Operations: OperationsConfig{
			IntakeMinutesPerItem: 0.5,
			ItemsPerKg:           4,
			WashBaseMinutes:      35,
			WashMinutesPerKg:     2,
			DryBaseMinutes:       40,
			DryMinutesPerKg:      2.5,
			FoldMinutesPerKg:     1.5,
			MaxRetriesPerOrder:   1000,
		},
		Analysis: AnalysisConfig{
			UtilizationMethod: "routes",
			AvgStopsPerRoute:  8,
			AvgRouteHours:     3,
			AvgWashHours:      1,
			AvgDryHours:       1,
		},
	}
}

// LoadConfig reads a YAML scenario file over DefaultConfig.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML bytes over DefaultConfig. Fields absent from the document keep
// their default values.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.Randomization.PeakEndHour < c.Randomization.PeakStartHour {
		return fmt.Errorf("randomization: peak_end_hour (%d) must not precede peak_start_hour (%d)",
			c.Randomization.PeakEndHour, c.Randomization.PeakStartHour)
	}
	if c.Pricing.WashPrice+c.Pricing.DryPrice <= 0 {
		return fmt.Errorf("pricing: wash_price + dry_price must be positive")
	}
	return nil
}

// formatValidationError converts validator errors into readable messages.
func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf("field '%s' failed validation: %s (value: '%v')",
			e.Namespace(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("invalid config:\n  %s", strings.Join(messages, "\n  "))
}

// Start returns the wall-clock instant of tick 0 (midnight of start_date, UTC).
// An unparseable start date falls back to the Unix epoch; Validate rejects it earlier.
func (c *Config) Start() time.Time {
	t, err := time.Parse(time.DateOnly, c.Simulation.StartDate)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}

// WallTime converts a simulation tick to wall-clock time.
func (c *Config) WallTime(tick int64) time.Time {
	return c.Start().Add(time.Duration(tick) * time.Second)
}

// HourOfDay returns the local hour (0-23) at the given tick.
func (c *Config) HourOfDay(tick int64) int {
	return c.WallTime(tick).Hour()
}

// HorizonTicks is the simulated span of order placement.
func (c *Config) HorizonTicks() int64 {
	return int64(c.Simulation.DurationDays) * TicksPerDay
}
