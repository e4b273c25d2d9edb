package models

import "time"

type PlanTag struct {
	PlanID    string    `gorm:"type:char(36);primaryKey;autoIncrement:false" json:"plan_id"`
	Tag       string    `gorm:"type:varchar(64);primaryKey;autoIncrement:false;index" json:"tag"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PlanTag) TableName() string {
	return "plan_tags"
}

// TagRowsFor builds the join rows for a plan.
func TagRowsFor(planID string, tags []string) []PlanTag {
	rows := make([]PlanTag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, PlanTag{PlanID: planID, Tag: tag})
	}
	return rows
}
