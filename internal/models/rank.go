package models

// Rank is a named tier of the points ladder. Max < 0 means unbounded.
type Rank struct {
	Level int    `gorm:"primaryKey;autoIncrement:false" json:"level"`
	Name  string `gorm:"size:50;not null" json:"name"`
	Min   int    `gorm:"not null" json:"min"`
	Max   int    `gorm:"not null" json:"max"`
	Icon  string `gorm:"size:16" json:"icon"`
}

func (r Rank) Contains(points int) bool {
	return points >= r.Min && (r.Max < 0 || points <= r.Max)
}
