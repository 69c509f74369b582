package models

import (
	"time"
)

type ArticleStatus string

const (
	StatusDraft       ArticleStatus = "draft"
	StatusPublished   ArticleStatus = "published"
	StatusUnpublished ArticleStatus = "unpublished"
)

// Article is the aggregate root. InlineImages holds the blobs uploaded for
// {{IMAGE_n}} markers in Content; only those are owned by the article.
type Article struct {
	ID           uint          `json:"id" gorm:"primarykey"`
	Title        string        `json:"title" gorm:"size:200;not null"`
	Content      *string       `json:"content,omitempty" gorm:"type:text"`
	Summary      string        `json:"summary" gorm:"type:text"`
	MainImageURL *string       `json:"main_image_url,omitempty"`
	InlineImages []string      `json:"-" gorm:"serializer:json;type:text"`
	CategoryID   uint          `json:"category_id" gorm:"not null;index"`
	Category     *Category     `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	IsPublic     bool          `json:"is_public" gorm:"not null;default:false;index"`
	IsFeatured   bool          `json:"is_featured" gorm:"not null;default:false;index"`
	PublishedAt  *time.Time    `json:"published_at"`
	AuthorID     uint          `json:"author_id" gorm:"not null;index"`
	Author       *User         `json:"-" gorm:"foreignKey:AuthorID"`
	AuthorName   string        `json:"author_name,omitempty" gorm:"-"`
	Status       ArticleStatus `json:"status" gorm:"-"`
	Sections     []Section     `json:"sections,omitempty" gorm:"foreignKey:ArticleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// CurrentStatus derives the publication state from the public flag and
// whether the article was ever published.
func (a *Article) CurrentStatus() ArticleStatus {
	switch {
	case a.IsPublic:
		return StatusPublished
	case a.PublishedAt != nil:
		return StatusUnpublished
	default:
		return StatusDraft
	}
}

type Section struct {
	ID         uint           `json:"id" gorm:"primarykey"`
	ArticleID  uint           `json:"article_id" gorm:"not null;index"`
	Title      string         `json:"title" gorm:"not null"`
	OrderIndex int            `json:"order_index" gorm:"not null;default:0"`
	Paragraphs []Paragraph    `json:"paragraphs" gorm:"foreignKey:SectionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Images     []SectionImage `json:"images" gorm:"foreignKey:SectionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (Section) TableName() string {
	return "article_sections"
}

type Paragraph struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	SectionID  uint      `json:"section_id" gorm:"not null;index"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	OrderIndex int       `json:"order_index" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Paragraph) TableName() string {
	return "section_paragraphs"
}

type SectionImage struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	SectionID  uint      `json:"section_id" gorm:"not null;index"`
	URL        string    `json:"url" gorm:"type:text;not null"`
	AltText    *string   `json:"alt_text,omitempty"`
	OrderIndex int       `json:"order_index" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (SectionImage) TableName() string {
	return "section_images"
}
