package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentStatus represents the publication state of a content item
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

// Valid reports whether s is one of the supported statuses.
func (s ContentStatus) Valid() bool {
	switch s {
	case ContentStatusDraft, ContentStatusPublished, ContentStatusArchived:
		return true
	}
	return false
}

// Content is an item tagged to exactly one category. Tagging and retagging
// feed the denormalized counters on the category tree.
type Content struct {
	ID         uuid.UUID     `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	CategoryID uuid.UUID     `gorm:"type:uuid;not null;index" json:"category_id"`
	Title      LocalizedText `gorm:"type:jsonb;not null" json:"title"`
	Body       string        `gorm:"type:text" json:"body"`
	Status     ContentStatus `gorm:"type:varchar(20);default:'draft';index" json:"status"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// TableName specifies the table name for Content model
func (*Content) TableName() string {
	return "contents"
}

// BeforeCreate sets up the model before creation
func (c *Content) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Validate performs validation on the content model
func (c *Content) Validate() error {
	if c.Title.IsEmpty() {
		return ErrInvalidContentTitle
	}
	if err := c.Title.ValidateLanguageCodes(); err != nil {
		return err
	}
	if !c.Status.Valid() {
		return ErrInvalidContentStatus
	}
	if c.CategoryID == uuid.Nil {
		return ErrInvalidCategoryID
	}
	return nil
}

// IsPublished checks if the content item is visible to readers
func (c *Content) IsPublished() bool {
	return c.Status == ContentStatusPublished
}
