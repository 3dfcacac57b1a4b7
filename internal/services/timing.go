package services

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// TrackTime logs how long a stage took. Use as defer TrackTime("Stage", time.Now()).
func TrackTime(stage string, start time.Time) {
	elapsed := time.Since(start)
	log.Debugf("%s took %d ms", stage, elapsed.Milliseconds())
}
