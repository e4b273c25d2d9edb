package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanCategory is reference data; administrative mutation happens outside the API.
type PlanCategory struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(150);not null;uniqueIndex" json:"name" validate:"required,max=150"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Icon        *string   `gorm:"type:varchar(64)" json:"icon,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PlanCategory) TableName() string {
	return "plan_categories"
}

func (c *PlanCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
