package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PathSeparator joins slugs into a materialized path ("/electronics/phones").
const PathSeparator = "/"

// MaxSlugLength matches the slug column width.
const MaxSlugLength = 100

// CascadePolicy selects what happens to descendants when a category is deleted.
type CascadePolicy string

const (
	CascadeRejectIfChildren CascadePolicy = "reject_if_children"
	CascadeDeleteSubtree    CascadePolicy = "cascade_delete"
	CascadeReparentChildren CascadePolicy = "reparent_children_to_grandparent"
)

// Valid reports whether p is one of the supported policies.
func (p CascadePolicy) Valid() bool {
	switch p {
	case CascadeRejectIfChildren, CascadeDeleteSubtree, CascadeReparentChildren:
		return true
	}
	return false
}

// Category is a node in the content category tree. The parent pointer is the
// source of truth for the hierarchy; Level, Path and the three counters are
// denormalizations maintained alongside every structural mutation.
type Category struct {
	ID       uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ParentID *uuid.UUID `gorm:"type:uuid;index:idx_categories_parent_level" json:"parent_id"`
	Level    int        `gorm:"not null;default:0;index:idx_categories_parent_level" json:"level"`
	Path     string     `gorm:"type:text;not null;uniqueIndex:idx_categories_path" json:"path"`

	// Slug is the path component for this node: the slug in the service's
	// default language. Slugs carries the per-language variants.
	Slug        string        `gorm:"type:varchar(100);not null" json:"slug"`
	Name        LocalizedText `gorm:"type:jsonb;not null" json:"name"`
	Description LocalizedText `gorm:"type:jsonb;default:'{}'" json:"description"`
	Slugs       LocalizedText `gorm:"type:jsonb;default:'{}'" json:"slugs"`

	SortOrder int  `gorm:"default:0" json:"sort_order"`
	IsActive  bool `gorm:"default:true" json:"is_active"`

	ContentCount      int `gorm:"not null;default:0" json:"content_count"`
	SubcategoryCount  int `gorm:"not null;default:0" json:"subcategory_count"`
	TotalContentCount int `gorm:"not null;default:0" json:"total_content_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	Parent   *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"-"`
	Contents []Content  `gorm:"foreignKey:CategoryID" json:"-"`
}

// TableName specifies the table name for Category model
func (*Category) TableName() string {
	return "categories"
}

// BeforeCreate sets up the model before creation
func (c *Category) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Validate performs validation on the category model
func (c *Category) Validate() error {
	if c.Name.IsEmpty() {
		return ErrInvalidCategoryName
	}
	for _, lt := range []LocalizedText{c.Name, c.Description, c.Slugs} {
		if err := lt.ValidateLanguageCodes(); err != nil {
			return err
		}
	}
	if !c.IsValidSlug() {
		return ErrInvalidCategorySlug
	}
	if c.Level < 0 {
		return ErrInvalidCategoryLevel
	}
	if c.Path != "" && !strings.HasPrefix(c.Path, PathSeparator) {
		return ErrInvalidCategoryPath
	}
	if c.ParentID != nil && *c.ParentID == c.ID {
		return ErrSelfParent
	}
	return nil
}

// IsValidSlug checks if the slug contains only valid characters
func (c *Category) IsValidSlug() bool {
	if c.Slug == "" || strings.HasPrefix(c.Slug, "-") || strings.HasSuffix(c.Slug, "-") {
		return false
	}
	if strings.Contains(c.Slug, "--") {
		return false
	}
	for _, char := range c.Slug {
		if !((char >= 'a' && char <= 'z') ||
			(char >= '0' && char <= '9') ||
			char == '-') {
			return false
		}
	}
	return true
}

// IsRoot reports whether this category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// IsDescendantOf reports whether c sits strictly below other in the tree,
// judged by the materialized paths.
func (c *Category) IsDescendantOf(other *Category) bool {
	if other == nil || other.Path == "" {
		return false
	}
	return strings.HasPrefix(c.Path, other.Path+PathSeparator)
}

// RootSlug returns the first path segment, i.e. the slug of the tree root
// this category lives under.
func (c *Category) RootSlug() string {
	trimmed := strings.TrimPrefix(c.Path, PathSeparator)
	if i := strings.Index(trimmed, PathSeparator); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

// CountChildren returns the number of direct subcategories from ground truth.
func (c *Category) CountChildren(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Category{}).Where("parent_id = ?", c.ID).Count(&count).Error
	return count, err
}

// CountDirectContents returns the number of content items tagged directly to
// this category from ground truth.
func (c *Category) CountDirectContents(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Content{}).Where("category_id = ?", c.ID).Count(&count).Error
	return count, err
}

// GetPublishedContents returns the published content items tagged directly to
// this category.
func (c *Category) GetPublishedContents(db *gorm.DB) ([]Content, error) {
	var contents []Content
	err := db.Where("category_id = ? AND status = ?", c.ID, ContentStatusPublished).Find(&contents).Error
	return contents, err
}
