package forecast

import (
	"math"
	"math/rand"
	"time"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
	"github.com/smartcity/traffic/pkg/utils"
)

// ForecastConfig holds the tunables of the congestion forecaster
type ForecastConfig struct {
	// Window is the correlation tolerance for location-specific history
	Window geo.Window
	// FallbackPool is how many general readings stand in when no
	// location-specific history exists
	FallbackPool int
	// DefaultCount / DefaultSpeed seed the baseline when even the fallback
	// pool is empty
	DefaultCount float64
	DefaultSpeed float64
	// Count and speed clamps for predicted values
	MinCount int
	MaxCount int
	MinSpeed float64
	MaxSpeed float64
	// Jitter half-widths; the count jitter is integral, the speed jitter
	// continuous
	CountJitter int
	SpeedJitter float64
	// MaxConfidence caps the sample-size confidence
	MaxConfidence float64
}

// DefaultForecastConfig returns the forecaster tunables used by the system
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Window:        geo.WindowDeg(0.01),
		FallbackPool:  50,
		DefaultCount:  40,
		DefaultSpeed:  50,
		MinCount:      5,
		MaxCount:      150,
		MinSpeed:      10,
		MaxSpeed:      80,
		CountJitter:   10,
		SpeedJitter:   5,
		MaxConfidence: 0.95,
	}
}

// Prediction is one hour of projected congestion
type Prediction struct {
	Time         time.Time              `json:"prediction_time"`
	HourOffset   int                    `json:"hour_offset"`
	VehicleCount int                    `json:"predicted_vehicle_count"`
	Speed        float64                `json:"predicted_speed"`
	Congestion   domain.CongestionLevel `json:"predicted_congestion_level"`
	Confidence   float64                `json:"confidence"`
	HourOfDay    int                    `json:"hour_of_day"`
	DayOfWeek    time.Weekday           `json:"day_of_week"`
	RushHour     bool                   `json:"is_rush_hour"`
	Weekend      bool                   `json:"is_weekend"`
}

// Forecaster projects congestion over a multi-hour horizon by applying
// time-of-day and day-of-week multipliers to a historical baseline. The
// jitter term keeps the projection from looking falsely deterministic; both
// the generator and the clock are injected so tests can pin them.
type Forecaster struct {
	cfg ForecastConfig
	rng *rand.Rand
	now func() time.Time
}

// NewForecaster creates a forecaster with the given randomness source
func NewForecaster(cfg ForecastConfig, rng *rand.Rand) *Forecaster {
	return &Forecaster{cfg: cfg, rng: rng, now: time.Now}
}

// Forecast returns one prediction per hour offset 1..horizonHours for the
// location, using the supplied historical readings as the baseline pool.
func (f *Forecaster) Forecast(location geo.Point, horizonHours int, historical []domain.Reading) []Prediction {
	pool := geo.Correlate(location, historical, f.cfg.Window)
	if len(pool) == 0 {
		// generic recency baseline, not nearest-by-distance
		if len(historical) > f.cfg.FallbackPool {
			pool = historical[:f.cfg.FallbackPool]
		} else {
			pool = historical
		}
	}

	baseCount, baseSpeed := f.cfg.DefaultCount, f.cfg.DefaultSpeed
	if len(pool) > 0 {
		var countSum, speedSum float64
		for _, r := range pool {
			countSum += float64(r.VehicleCount)
			speedSum += r.AverageSpeed
		}
		baseCount = countSum / float64(len(pool))
		baseSpeed = speedSum / float64(len(pool))
	}

	confidence := math.Min(f.cfg.MaxConfidence, 0.5+float64(len(pool))/100)

	start := f.now().UTC()
	predictions := make([]Prediction, 0, horizonHours)
	for h := 1; h <= horizonHours; h++ {
		at := start.Add(time.Duration(h) * time.Hour)
		hour := at.Hour()
		day := at.Weekday()
		weekend := day == time.Saturday || day == time.Sunday

		rushMult := 1.0
		switch {
		case (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19):
			rushMult = 1.5
		case hour >= 22 || hour <= 6:
			rushMult = 0.6
		}

		weekendMult := 1.0
		if weekend {
			weekendMult = 0.8
			if hour >= 10 && hour <= 16 {
				weekendMult = 1.2
			}
		}

		count := int(math.Round(baseCount * rushMult * weekendMult))
		count += f.rng.Intn(2*f.cfg.CountJitter+1) - f.cfg.CountJitter
		count = utils.ClampInt(count, f.cfg.MinCount, f.cfg.MaxCount)

		speed := baseSpeed / (rushMult*0.8 + 0.2)
		speed += f.rng.Float64()*2*f.cfg.SpeedJitter - f.cfg.SpeedJitter
		speed = utils.Clamp(speed, f.cfg.MinSpeed, f.cfg.MaxSpeed)
		speed = utils.RoundTo(speed, 1)

		predictions = append(predictions, Prediction{
			Time:         at,
			HourOffset:   h,
			VehicleCount: count,
			Speed:        speed,
			Congestion:   domain.DeriveCongestion(count, speed),
			Confidence:   utils.RoundTo(confidence, 2),
			HourOfDay:    hour,
			DayOfWeek:    day,
			RushHour:     rushMult > 1.0,
			Weekend:      weekend,
		})
	}

	return predictions
}

// PoolSize reports how many historical readings would back a forecast at the
// location; exposed for response shaping
func (f *Forecaster) PoolSize(location geo.Point, historical []domain.Reading) int {
	pool := geo.Correlate(location, historical, f.cfg.Window)
	if len(pool) == 0 {
		if len(historical) > f.cfg.FallbackPool {
			return f.cfg.FallbackPool
		}
		return len(historical)
	}
	return len(pool)
}
