package models

import "time"

type PlanFavorite struct {
	UserID    string    `gorm:"type:varchar(64);primaryKey;autoIncrement:false" json:"user_id"`
	PlanID    string    `gorm:"type:char(36);primaryKey;autoIncrement:false;index" json:"plan_id"`
	Plan      *Plan     `gorm:"foreignKey:PlanID;references:ID" json:"plan,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PlanFavorite) TableName() string {
	return "plan_favorites"
}
