package salonpress

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eringen/salonpress/markdown"
)

// BlogFilter narrows List results. An empty Status means every post.
type BlogFilter struct {
	Status Status
}

// BlogRepository manages blog posts stored in a single JSON file.
type BlogRepository struct {
	store       *jsonCollection[BlogPost]
	images      *ImagePipeline
	constraints ImageConstraints
	brand       string
	author      string
	now         func() time.Time
}

// NewBlogRepository creates a repository backed by <dataDir>/blog.json.
func NewBlogRepository(cfg SiteConfig, images *ImagePipeline, now func() time.Time, logger echo.Logger) *BlogRepository {
	return &BlogRepository{
		store:       newJSONCollection[BlogPost](filepath.Join(cfg.DataDir, "blog.json"), cfg.ContentCacheTTL, now, logger),
		images:      images,
		constraints: cfg.Images.Blog,
		brand:       cfg.Name,
		author:      cfg.Author,
		now:         now,
	}
}

// List returns posts newest first, optionally filtered by status.
func (r *BlogRepository) List(f BlogFilter) []BlogPost {
	posts := r.store.all()
	if f.Status == "" {
		return posts
	}
	filtered := make([]BlogPost, 0, len(posts))
	for _, p := range posts {
		if p.Status == f.Status {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Get returns the post with id.
func (r *BlogRepository) Get(id string) (BlogPost, error) {
	p, ok := r.store.find(id)
	if !ok {
		return BlogPost{}, ErrNotFound
	}
	return p, nil
}

// GetBySlug returns the newest post with slug.
func (r *BlogRepository) GetBySlug(slug string) (BlogPost, error) {
	for _, p := range r.store.all() {
		if p.Slug == slug {
			return p, nil
		}
	}
	return BlogPost{}, ErrNotFound
}

// Create validates in, derives the slug, excerpt and SEO fields, stores the
// optional image and persists the new post.
func (r *BlogRepository) Create(in BlogInput, upload *Upload) (BlogPost, error) {
	now := r.now()
	post := BlogPost{
		ID:        uuid.NewString(),
		Status:    StatusDraft,
		Author:    r.author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyBlogInput(&post, in); err != nil {
		return BlogPost{}, err
	}
	if err := validateBlogPost(post); err != nil {
		return BlogPost{}, err
	}
	post.Slug = Slugify(post.Title)
	r.derive(&post)
	if post.Status == StatusPublished {
		post.PublishedAt = &now
	}
	if upload != nil {
		src, err := r.images.Ingest(upload.Data, post.Title, "blog", r.constraints)
		if err != nil {
			return BlogPost{}, err
		}
		post.FeaturedImage = src
	}

	err := r.store.mutate(func(posts []BlogPost) ([]BlogPost, error) {
		return append(posts, post), nil
	})
	if err != nil {
		r.images.discard(post.FeaturedImage)
		return BlogPost{}, err
	}
	return post, nil
}

// Update merges in over the stored post. Fields left nil keep their stored
// value; a new image replaces the old file only after the post is saved.
// The upload is transcoded before the file is re-read and discarded again if
// the post is missing or the merged post is invalid.
func (r *BlogRepository) Update(id string, in BlogInput, upload *Upload) (BlogPost, error) {
	var newImage string
	if upload != nil {
		hint := ""
		if in.Title != nil {
			hint = *in.Title
		}
		if cur, ok := r.store.find(id); ok {
			draft, err := mergeBlogPost(cur, in)
			if err != nil {
				return BlogPost{}, err
			}
			hint = draft.Title
		}
		src, err := r.images.Ingest(upload.Data, hint, "blog", r.constraints)
		if err != nil {
			return BlogPost{}, err
		}
		newImage = src
	}

	var (
		updated  BlogPost
		oldImage string
		rest     []BlogPost
	)
	err := r.store.mutate(func(posts []BlogPost) ([]BlogPost, error) {
		i := indexOf(posts, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		prev := posts[i]
		post, err := mergeBlogPost(prev, in)
		if err != nil {
			return nil, err
		}
		now := r.now()
		if post.Title != prev.Title {
			post.Slug = Slugify(post.Title)
		}
		r.derive(&post)
		switch {
		case post.Status == StatusDraft:
			post.PublishedAt = nil
		case prev.Status != StatusPublished || prev.PublishedAt == nil:
			post.PublishedAt = &now
		}
		switch {
		case newImage != "":
			oldImage = prev.FeaturedImage
			post.FeaturedImage = newImage
		case in.RemoveImage:
			oldImage = prev.FeaturedImage
			post.FeaturedImage = ""
		}
		post.UpdatedAt = now
		posts[i] = post
		updated = post
		rest = posts
		return posts, nil
	})
	if err != nil {
		r.images.discard(newImage)
		return BlogPost{}, err
	}
	if oldImage != "" && oldImage != newImage && !imageInUse(rest, oldImage) {
		r.images.discard(oldImage)
	}
	return updated, nil
}

// Delete removes the post and, when nothing else references it, its image.
func (r *BlogRepository) Delete(id string) error {
	var (
		image string
		rest  []BlogPost
	)
	err := r.store.mutate(func(posts []BlogPost) ([]BlogPost, error) {
		i := indexOf(posts, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		image = posts[i].FeaturedImage
		rest = append(posts[:i:i], posts[i+1:]...)
		return rest, nil
	})
	if err != nil {
		return err
	}
	if image != "" && !imageInUse(rest, image) {
		r.images.discard(image)
	}
	return nil
}

// derive fills the author, excerpt and SEO fields the caller left empty.
func (r *BlogRepository) derive(p *BlogPost) {
	if p.Author == "" {
		p.Author = r.author
	}
	plain := markdown.PlainText(p.Content)
	if strings.TrimSpace(p.Excerpt) == "" {
		p.Excerpt = DeriveExcerpt(plain, blogExcerptLength)
	}
	metaTitle, metaDesc := DeriveSEO(p.Title, firstNonEmpty(p.Excerpt, plain), r.brand)
	if strings.TrimSpace(p.SEO.MetaTitle) == "" {
		p.SEO.MetaTitle = metaTitle
	}
	if strings.TrimSpace(p.SEO.MetaDescription) == "" {
		p.SEO.MetaDescription = metaDesc
	}
}

// applyBlogInput copies the submitted fields onto p. Derived fields submitted
// blank keep their current value so derive can decide what to do with them.
func applyBlogInput(p *BlogPost, in BlogInput) error {
	verr := &ValidationError{}
	setTrimmed(&p.Title, in.Title)
	setTrimmed(&p.Content, in.Content)
	setTrimmed(&p.ImageAlt, in.ImageAlt)
	setTrimmed(&p.Author, in.Author)
	setNonEmpty(&p.Excerpt, in.Excerpt)
	setNonEmpty(&p.SEO.MetaTitle, in.MetaTitle)
	setNonEmpty(&p.SEO.MetaDescription, in.MetaDescription)
	if in.Keywords != nil {
		p.SEO.Keywords = FilterEmpty(*in.Keywords)
	}
	if in.Status != nil {
		s := Status(strings.ToLower(strings.TrimSpace(string(*in.Status))))
		if !s.valid() {
			verr.add("status", "status must be draft or published")
		} else {
			p.Status = s
		}
	}
	return verr.errOrNil()
}

// mergeBlogPost returns prev with in applied, or the validation error.
func mergeBlogPost(prev BlogPost, in BlogInput) (BlogPost, error) {
	post := prev
	if err := applyBlogInput(&post, in); err != nil {
		return BlogPost{}, err
	}
	if err := validateBlogPost(post); err != nil {
		return BlogPost{}, err
	}
	return post, nil
}

func validateBlogPost(p BlogPost) error {
	verr := &ValidationError{}
	if p.Title == "" {
		verr.add("title", "title is required")
	}
	if p.Content == "" {
		verr.add("content", "content is required")
	}
	return verr.errOrNil()
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setNonEmpty(dst *string, v *string) {
	if v != nil {
		if s := strings.TrimSpace(*v); s != "" {
			*dst = s
		}
	}
}
