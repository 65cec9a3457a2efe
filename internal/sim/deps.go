package sim

import (
	"shakeout/server/internal/telemetry"
	"shakeout/server/logging"
)

// Deps carries shared infrastructure dependencies required by the simulation driver.
type Deps struct {
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	Clock   logging.Clock
}
