package models

import "errors"

var (
	ErrInvalidCategoryName  = errors.New("category name is required in at least one language")
	ErrInvalidCategorySlug  = errors.New("invalid category slug")
	ErrInvalidLanguageCode  = errors.New("invalid language code")
	ErrInvalidCategoryLevel = errors.New("category level cannot be negative")
	ErrInvalidCategoryPath  = errors.New("category path must start with /")
	ErrSelfParent           = errors.New("category cannot be its own parent")
	ErrCircularReference    = errors.New("move would make the category its own ancestor")
	ErrParentInactive       = errors.New("parent category is inactive")
	ErrMoveTargetInactive   = errors.New("target parent category is inactive")
	ErrMaxDepthExceeded     = errors.New("category depth limit exceeded")
	ErrCategoryHasChildren  = errors.New("category still has subcategories")
	ErrCategoryHasContent   = errors.New("category still has tagged content")
	ErrSlugTaken            = errors.New("slug already used by a sibling category")
	ErrInvalidCascadePolicy = errors.New("unknown cascade policy")
	ErrCorruptHierarchy     = errors.New("category hierarchy is corrupt")
	ErrHierarchyBusy        = errors.New("category hierarchy is busy, retry later")

	ErrInvalidContentTitle  = errors.New("content title is required in at least one language")
	ErrInvalidContentStatus = errors.New("invalid content status")
	ErrInvalidCategoryID    = errors.New("invalid category ID")

	ErrInvalidMaxDepth        = errors.New("invalid max depth")
	ErrInvalidDefaultLanguage = errors.New("invalid default language")
	ErrInvalidLockTimeout     = errors.New("lock timeout must be positive")
	ErrInvalidCacheTTL        = errors.New("cache TTL cannot be negative")
	ErrInvalidPageSize        = errors.New("invalid page size limits")

	ErrDatabaseCredentialNotConfigured = errors.New("database credentials not configured")

	ErrRecordNotFound = errors.New("record not found")
)
