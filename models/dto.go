package models

type RegisterRequest struct {
	Username    string   `json:"username" binding:"required,min=3,max=50"`
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required,min=6"`
	FirstName   string   `json:"first_name" binding:"max=100"`
	LastName    string   `json:"last_name" binding:"max=100"`
	DisplayName string   `json:"display_name" binding:"max=100"`
	Role        UserRole `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Slug        string `json:"slug" binding:"omitempty,max=100"`
	Description string `json:"description"`
}

// ArticleInput is the transport-neutral article payload. Pointer fields are
// nil when the caller did not send them, which lets updates merge only what
// was supplied.
type ArticleInput struct {
	Title            *string        `json:"title"`
	Content          *string        `json:"content"`
	Summary          *string        `json:"summary"`
	Category         *string        `json:"category"`
	MainImageURL     *string        `json:"main_image_url"`
	IsPublic         *bool          `json:"is_public"`
	IsFeatured       *bool          `json:"is_featured"`
	ReplaceMainImage bool           `json:"replace_main_image"`
	Sections         []SectionInput `json:"sections"`
	HasSections      bool           `json:"-"`
}

type SectionInput struct {
	Title      string              `json:"title"`
	OrderIndex *int                `json:"order_index"`
	Paragraphs []ParagraphInput    `json:"paragraphs"`
	Images     []SectionImageInput `json:"images"`
}

type ParagraphInput struct {
	Content    string `json:"content"`
	OrderIndex *int   `json:"order_index"`
}

type SectionImageInput struct {
	URL        string  `json:"url"`
	AltText    *string `json:"alt_text"`
	OrderIndex *int    `json:"order_index"`
}

type ArticleListParams struct {
	Search     string `form:"search" validate:"omitempty,max=200"`
	IsPublic   *bool  `form:"is_public"`
	IsFeatured *bool  `form:"is_featured"`
	Category   string `form:"category" validate:"omitempty,max=100"`
	Page       int    `form:"page,default=1" validate:"min=1"`
	Limit      int    `form:"limit,default=10" validate:"min=1,max=100"`
	SortBy     string `form:"sort_by,default=created_at" validate:"omitempty,oneof=created_at updated_at title id published_at createdAt updatedAt publishedAt"`
	SortOrder  string `form:"sort_order,default=desc" validate:"omitempty,oneof=asc desc ASC DESC"`
}

type ArticleListResponse struct {
	Articles   []Article              `json:"articles"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	Pagination map[string]interface{} `json:"pagination,omitempty"`
}
