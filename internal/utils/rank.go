package utils

import (
	"unishare/internal/models"
)

// Ranks is the points ladder in ascending order. The tiers are contiguous and
// the last one is unbounded, so together they cover [0, ∞).
var Ranks = []models.Rank{
	{Level: 1, Name: "Freshman Scholar", Min: 0, Max: 99, Icon: "🌱"},
	{Level: 2, Name: "Knowledge Seeker", Min: 100, Max: 299, Icon: "📘"},
	{Level: 3, Name: "Diligent Learner", Min: 300, Max: 599, Icon: "✏️"},
	{Level: 4, Name: "Campus Contributor", Min: 600, Max: 999, Icon: "🤝"},
	{Level: 5, Name: "Study Mentor", Min: 1000, Max: 1499, Icon: "🧭"},
	{Level: 6, Name: "Academic Achiever", Min: 1500, Max: 2199, Icon: "🏅"},
	{Level: 7, Name: "Dean's Lister", Min: 2200, Max: 2999, Icon: "🎓"},
	{Level: 8, Name: "Research Pioneer", Min: 3000, Max: 3999, Icon: "🔬"},
	{Level: 9, Name: "Wisdom Keeper", Min: 4000, Max: 4999, Icon: "🦉"},
	{Level: 10, Name: "Grand Luminary", Min: 5000, Max: -1, Icon: "🏆"},
}

// RankFor returns the tier containing points, or the lowest tier when none does.
func RankFor(points int) models.Rank {
	for _, r := range Ranks {
		if r.Contains(points) {
			return r
		}
	}
	return Ranks[0]
}

// RankByLevel looks a tier up by its level.
func RankByLevel(level int) (models.Rank, bool) {
	for _, r := range Ranks {
		if r.Level == level {
			return r, true
		}
	}
	return models.Rank{}, false
}
