package utils

import (
	"math"
	"time"
)

// ScoreConfig weighs engagement when ordering resources by popularity.
type ScoreConfig struct {
	Gravity       float64
	WeightLike    float64
	WeightDislike float64
	ScaleFactor   float64
}

var DefaultScoreConfig = ScoreConfig{
	Gravity:       1.2,
	WeightLike:    1.0,
	WeightDislike: 1.5,
	ScaleFactor:   100.0,
}

// ResourceScore is a time-decayed popularity score. Older resources need
// proportionally more engagement to stay on top.
func ResourceScore(createdAt, now time.Time, likes, dislikes int) float64 {
	cfg := DefaultScoreConfig
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}

	weighted := float64(likes)*cfg.WeightLike - float64(dislikes)*cfg.WeightDislike
	if weighted < 0 {
		weighted = 0
	}

	numerator := math.Log10(weighted+1) * cfg.ScaleFactor
	decay := math.Pow(hours/24+2, cfg.Gravity)
	return numerator / decay
}
