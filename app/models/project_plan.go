package models

import "time"

// ProjectPlan links a plan into a consuming project. The pair is the identity.
type ProjectPlan struct {
	ProjectID string    `gorm:"type:varchar(64);primaryKey;autoIncrement:false" json:"project_id"`
	PlanID    string    `gorm:"type:char(36);primaryKey;autoIncrement:false;index" json:"plan_id"`
	Plan      *Plan     `gorm:"foreignKey:PlanID;references:ID" json:"plan,omitempty"`
	AddedBy   string    `gorm:"type:varchar(64);not null" json:"added_by"`
	Notes     *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProjectPlan) TableName() string {
	return "project_plans"
}
