package salonpress

import "time"

// Status is the publication state of a blog post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// SEO carries per-post search metadata. Empty fields are derived on save.
type SEO struct {
	MetaTitle       string   `json:"metaTitle,omitempty"`
	MetaDescription string   `json:"metaDescription,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
}

// BlogPost is a markdown article managed from the admin console.
type BlogPost struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Excerpt       string     `json:"excerpt"`
	Content       string     `json:"content"`
	FeaturedImage string     `json:"featuredImage"`
	ImageAlt      string     `json:"imageAlt"`
	Author        string     `json:"author"`
	PublishedAt   *time.Time `json:"publishedAt"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	SEO           SEO        `json:"seo"`
}

func (p BlogPost) key() string        { return p.ID }
func (p BlogPost) created() time.Time { return p.CreatedAt }
func (p BlogPost) imagePath() string  { return p.FeaturedImage }

// Event is a promotion shown in the homepage carousel.
// Date is a plain YYYY-MM-DD calendar string so rendering never shifts it
// across time zones.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Date          string    `json:"date"`
	Description   string    `json:"description"`
	Excerpt       string    `json:"excerpt,omitempty"`
	ImageSrc      string    `json:"imageSrc"`
	ImageAlt      string    `json:"imageAlt"`
	Link          string    `json:"link"`
	ImagePosition string    `json:"imagePosition"`
	ObjectFit     string    `json:"objectFit"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (e Event) key() string        { return e.ID }
func (e Event) created() time.Time { return e.CreatedAt }
func (e Event) imagePath() string  { return e.ImageSrc }

var (
	imagePositions = []string{"center", "top", "bottom", "left", "right"}
	objectFits     = []string{"cover", "contain"}
)

// Upload is an image file received alongside a create or update request.
type Upload struct {
	Filename string
	Data     []byte
}

// BlogInput holds the fields submitted for a blog post. Nil fields are left
// untouched on update.
type BlogInput struct {
	Title           *string
	Excerpt         *string
	Content         *string
	ImageAlt        *string
	Author          *string
	Status          *Status
	MetaTitle       *string
	MetaDescription *string
	Keywords        *[]string
	RemoveImage     bool
}

// EventInput holds the fields submitted for an event. Nil fields are left
// untouched on update.
type EventInput struct {
	Title         *string
	Date          *string
	Description   *string
	Excerpt       *string
	ImageAlt      *string
	Link          *string
	ImagePosition *string
	ObjectFit     *string
	RemoveImage   bool
}
