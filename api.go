package salonpress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/salonpress/markdown"
)

const (
	contentBlog   = "blog"
	contentEvents = "events"
)

var errUploadTooLarge = errors.New("upload too large")

func (a *App) handleContentGet(c echo.Context) error {
	switch c.Param("type") {
	case contentBlog:
		return a.getBlog(c)
	case contentEvents:
		return a.getEvents(c)
	}
	return echo.ErrNotFound
}

func (a *App) getBlog(c echo.Context) error {
	admin := a.IsAdmin(c)

	if id := c.QueryParam("id"); id != "" {
		post, err := a.Blog.Get(id)
		if err == nil && !admin && post.Status != StatusPublished {
			err = ErrNotFound
		}
		if err != nil {
			return a.contentError(c, err)
		}
		return c.JSON(http.StatusOK, post)
	}

	if slug := c.QueryParam("slug"); slug != "" {
		if admin {
			post, err := a.Blog.GetBySlug(slug)
			if err != nil {
				return a.contentError(c, err)
			}
			return c.JSON(http.StatusOK, post)
		}
		for _, p := range a.Blog.List(BlogFilter{Status: StatusPublished}) {
			if p.Slug == slug {
				return c.JSON(http.StatusOK, p)
			}
		}
		return a.contentError(c, ErrNotFound)
	}

	var filter BlogFilter
	switch status := c.QueryParam("status"); status {
	case "":
		if !admin {
			filter.Status = StatusPublished
		}
	case string(StatusPublished):
		filter.Status = StatusPublished
	case string(StatusDraft), "all":
		if !admin {
			return jsonError(c, http.StatusUnauthorized, "unauthorized")
		}
		if status == string(StatusDraft) {
			filter.Status = StatusDraft
		}
	default:
		return jsonError(c, http.StatusBadRequest, "status must be all, draft or published")
	}
	return c.JSON(http.StatusOK, a.Blog.List(filter))
}

func (a *App) getEvents(c echo.Context) error {
	if id := c.QueryParam("id"); id != "" {
		ev, err := a.Events.Get(id)
		if err != nil {
			return a.contentError(c, err)
		}
		return c.JSON(http.StatusOK, ev)
	}
	when := c.QueryParam("when")
	switch when {
	case "", "all", "upcoming", "past":
	default:
		return jsonError(c, http.StatusBadRequest, "when must be all, upcoming or past")
	}
	return c.JSON(http.StatusOK, a.Events.List(EventFilter{When: when}))
}

func (a *App) handleContentCreate(c echo.Context) error {
	vals, upload, err := contentForm(c)
	if err != nil {
		return a.formError(c, err)
	}
	switch c.Param("type") {
	case contentBlog:
		post, err := a.Blog.Create(blogInputFromForm(vals), upload)
		if err != nil {
			return a.contentError(c, err)
		}
		c.Logger().Infof("content: created blog post %s (%s)", post.ID, post.Slug)
		return c.JSON(http.StatusCreated, post)
	case contentEvents:
		ev, err := a.Events.Create(eventInputFromForm(vals), upload)
		if err != nil {
			return a.contentError(c, err)
		}
		c.Logger().Infof("content: created event %s", ev.ID)
		return c.JSON(http.StatusCreated, ev)
	}
	return echo.ErrNotFound
}

func (a *App) handleContentUpdate(c echo.Context) error {
	vals, upload, err := contentForm(c)
	if err != nil {
		return a.formError(c, err)
	}
	id := firstNonEmpty(vals.Get("id"), c.QueryParam("id"))
	if id == "" {
		return a.contentError(c, &ValidationError{FieldErrors: map[string]string{"id": "id is required"}})
	}
	switch c.Param("type") {
	case contentBlog:
		post, err := a.Blog.Update(id, blogInputFromForm(vals), upload)
		if err != nil {
			return a.contentError(c, err)
		}
		return c.JSON(http.StatusOK, post)
	case contentEvents:
		ev, err := a.Events.Update(id, eventInputFromForm(vals), upload)
		if err != nil {
			return a.contentError(c, err)
		}
		return c.JSON(http.StatusOK, ev)
	}
	return echo.ErrNotFound
}

func (a *App) handleContentDelete(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return a.contentError(c, &ValidationError{FieldErrors: map[string]string{"id": "id is required"}})
	}
	var err error
	switch c.Param("type") {
	case contentBlog:
		err = a.Blog.Delete(id)
	case contentEvents:
		err = a.Events.Delete(id)
	default:
		return echo.ErrNotFound
	}
	if err != nil {
		return a.contentError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (a *App) handlePreview(c echo.Context) error {
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	var buf bytes.Buffer
	if err := markdown.Preview(req.Content).Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"html": buf.String()})
}

// contentError maps repository errors to responses. Storage and unexpected
// errors are logged and answered without detail.
func (a *App) contentError(c echo.Context, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": verr.FieldErrors,
		})
	case errors.Is(err, ErrNotFound):
		return jsonError(c, http.StatusNotFound, "not found")
	case errors.Is(err, ErrImageProcessing):
		c.Logger().Warnf("content: %v", err)
		return jsonError(c, http.StatusUnprocessableEntity, "could not process that image")
	}
	c.Logger().Errorf("content: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	return jsonError(c, http.StatusInternalServerError, "internal server error")
}

func (a *App) formError(c echo.Context, err error) error {
	if errors.Is(err, errUploadTooLarge) {
		return jsonError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("image must be at most %d MB", maxUploadSize>>20))
	}
	return jsonError(c, http.StatusBadRequest, "invalid form")
}

// contentForm parses a urlencoded or multipart body. upload is nil when no
// image part was sent.
func contentForm(c echo.Context) (url.Values, *Upload, error) {
	vals, err := c.FormParams()
	if err != nil {
		return nil, nil, err
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return vals, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if fh.Size > maxUploadSize {
		return nil, nil, errUploadTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return nil, nil, err
	}
	if len(data) > maxUploadSize {
		return nil, nil, errUploadTooLarge
	}
	if len(data) == 0 {
		return vals, nil, nil
	}
	return vals, &Upload{Filename: fh.Filename, Data: data}, nil
}

func formString(vals url.Values, key string) *string {
	if _, ok := vals[key]; !ok {
		return nil
	}
	v := vals.Get(key)
	return &v
}

func formBool(vals url.Values, key string) bool {
	v := strings.TrimSpace(vals.Get(key))
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func blogInputFromForm(vals url.Values) BlogInput {
	in := BlogInput{
		Title:           formString(vals, "title"),
		Excerpt:         formString(vals, "excerpt"),
		Content:         formString(vals, "content"),
		ImageAlt:        formString(vals, "imageAlt"),
		Author:          formString(vals, "author"),
		MetaTitle:       formString(vals, "metaTitle"),
		MetaDescription: formString(vals, "metaDescription"),
		RemoveImage:     formBool(vals, "removeImage"),
	}
	if s := formString(vals, "status"); s != nil {
		status := Status(strings.TrimSpace(*s))
		in.Status = &status
	}
	if k := formString(vals, "keywords"); k != nil {
		parts := strings.Split(*k, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		keywords := FilterEmpty(parts)
		in.Keywords = &keywords
	}
	return in
}

func eventInputFromForm(vals url.Values) EventInput {
	return EventInput{
		Title:         formString(vals, "title"),
		Date:          formString(vals, "date"),
		Description:   formString(vals, "description"),
		Excerpt:       formString(vals, "excerpt"),
		ImageAlt:      formString(vals, "imageAlt"),
		Link:          formString(vals, "link"),
		ImagePosition: formString(vals, "imagePosition"),
		ObjectFit:     formString(vals, "objectFit"),
		RemoveImage:   formBool(vals, "removeImage"),
	}
}
