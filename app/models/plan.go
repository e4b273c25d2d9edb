package models

import (
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Visibility controls which actors may read a plan.
type Visibility string

const (
	VisibilityPrivate      Visibility = "private"
	VisibilityPublic       Visibility = "public"
	VisibilityOrganization Visibility = "organization"
)

const MaxTagLength = 64

// ParseVisibility accepts the three known scopes (case-insensitive).
func ParseVisibility(s string) (Visibility, bool) {
	switch Visibility(strings.ToLower(strings.TrimSpace(s))) {
	case VisibilityPrivate:
		return VisibilityPrivate, true
	case VisibilityPublic:
		return VisibilityPublic, true
	case VisibilityOrganization:
		return VisibilityOrganization, true
	}
	return "", false
}

// Plan is a catalog entry of the shared plan library (floor plan, section, facade, ...).
type Plan struct {
	ID          string            `gorm:"type:char(36);primaryKey" json:"id"`
	Owner       string            `gorm:"type:varchar(64);not null;index" json:"owner"`
	Title       string            `gorm:"type:varchar(255);not null" json:"title"`
	Description *string           `gorm:"type:text" json:"description,omitempty"`
	CategoryID  *string           `gorm:"type:char(36);index" json:"category_id,omitempty"`
	StoragePath string            `gorm:"type:varchar(1024);not null" json:"storage_path"`
	Filename    string            `gorm:"type:varchar(255);not null" json:"filename"`
	MimeType    *string           `gorm:"type:varchar(127)" json:"mime_type,omitempty"`
	SizeBytes   *int64            `gorm:"type:bigint" json:"size,omitempty"`
	Visibility  Visibility        `gorm:"type:varchar(20);not null;default:private;index" json:"visibility"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	UsageCount  int64             `gorm:"not null;default:0;index" json:"usage_count"`
	// relations
	TagRows   []PlanTag `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"-"`
	Tags      []string  `gorm:"-" json:"tags"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// BeforeCreate wird vor dem Erstellen eines neuen Datensatzes aufgerufen
func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityPrivate
	}
	return nil
}

// SyncTags copies the loaded tag rows into the public tag list.
func (p *Plan) SyncTags() {
	tags := make([]string, 0, len(p.TagRows))
	for _, row := range p.TagRows {
		tags = append(tags, row.Tag)
	}
	sort.Strings(tags)
	p.Tags = tags
}

// IsVisibleTo applies the read policy to a single plan. peers are the actors
// that share an organization with actorID.
func (p *Plan) IsVisibleTo(actorID string, peers []string) bool {
	if p.Visibility == VisibilityPublic {
		return true
	}
	if actorID != "" && p.Owner == actorID {
		return true
	}
	if p.Visibility == VisibilityOrganization {
		for _, peer := range peers {
			if peer == p.Owner {
				return true
			}
		}
	}
	return false
}

// PlanInput carries the caller supplied fields of a new plan.
type PlanInput struct {
	Title       string         `json:"title" validate:"required,max=255"`
	Description *string        `json:"description"`
	CategoryID  *string        `json:"category_id" validate:"omitempty,max=36"`
	StoragePath string         `json:"storage_path" validate:"required,max=1024"`
	Filename    string         `json:"filename" validate:"required,max=255"`
	MimeType    *string        `json:"mime_type" validate:"omitempty,max=127"`
	SizeBytes   *int64         `json:"size" validate:"omitempty,min=0"`
	Tags        []string       `json:"tags"`
	Visibility  string         `json:"visibility" validate:"omitempty,oneof=private public organization"`
	Metadata    map[string]any `json:"metadata"`
}

// PlanUpdate carries a partial update. Nil fields are left untouched. Owner,
// storage path, filename and usage count are not part of it on purpose.
type PlanUpdate struct {
	Title       *string         `json:"title" validate:"omitempty,max=255"`
	Description *string         `json:"description"`
	CategoryID  *string         `json:"category_id" validate:"omitempty,max=36"`
	MimeType    *string         `json:"mime_type" validate:"omitempty,max=127"`
	SizeBytes   *int64          `json:"size" validate:"omitempty,min=0"`
	Tags        *[]string       `json:"tags"`
	Visibility  *string         `json:"visibility" validate:"omitempty,oneof=private public organization"`
	Metadata    *map[string]any `json:"metadata"`
}

var validate = validator.New()

// Validate validates the create input
func (in *PlanInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.StoragePath = strings.TrimSpace(in.StoragePath)
	in.Filename = strings.TrimSpace(in.Filename)
	in.Visibility = strings.ToLower(strings.TrimSpace(in.Visibility))
	return validate.Struct(in)
}

// Validate validates the update input
func (u *PlanUpdate) Validate() error {
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		u.Title = &t
		if t == "" {
			return validate.Var(t, "required")
		}
	}
	if u.Visibility != nil {
		v := strings.ToLower(strings.TrimSpace(*u.Visibility))
		u.Visibility = &v
	}
	return validate.Struct(u)
}

// IsEmpty reports whether the update would change nothing.
func (u *PlanUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.CategoryID == nil && u.MimeType == nil &&
		u.SizeBytes == nil && u.Tags == nil && u.Visibility == nil && u.Metadata == nil
}

// NewPlan validates the input and builds a plan owned by ownerID. Usage count
// always starts at zero.
func NewPlan(ownerID string, in PlanInput) (*Plan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	visibility := VisibilityPrivate
	if in.Visibility != "" {
		visibility = Visibility(in.Visibility)
	}

	p := &Plan{
		Owner:       ownerID,
		Title:       in.Title,
		Description: in.Description,
		CategoryID:  emptyToNil(in.CategoryID),
		StoragePath: in.StoragePath,
		Filename:    in.Filename,
		MimeType:    in.MimeType,
		SizeBytes:   in.SizeBytes,
		Visibility:  visibility,
		Metadata:    datatypes.JSONMap(in.Metadata),
		UsageCount:  0,
	}
	if p.Metadata == nil {
		p.Metadata = datatypes.JSONMap{}
	}
	p.Tags = NormalizeTags(in.Tags)
	return p, nil
}

// NormalizeTags trims, lower-cases and de-duplicates tags. Empty tags are
// dropped and long tags are cut to MaxTagLength runes. The result is sorted.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if r := []rune(tag); len(r) > MaxTagLength {
			tag = string(r[:MaxTagLength])
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
