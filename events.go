package salonpress

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eringen/salonpress/markdown"
)

const dateLayout = "2006-01-02"

// EventFilter narrows List results by comparing event dates with today.
// When is "", "all", "upcoming" or "past". Undated events count as upcoming.
type EventFilter struct {
	When string
}

// EventRepository manages carousel events stored in a single JSON file.
type EventRepository struct {
	store       *jsonCollection[Event]
	images      *ImagePipeline
	constraints ImageConstraints
	now         func() time.Time
}

// NewEventRepository creates a repository backed by <dataDir>/events.json.
func NewEventRepository(cfg SiteConfig, images *ImagePipeline, now func() time.Time, logger echo.Logger) *EventRepository {
	return &EventRepository{
		store:       newJSONCollection[Event](filepath.Join(cfg.DataDir, "events.json"), cfg.ContentCacheTTL, now, logger),
		images:      images,
		constraints: cfg.Images.Events,
		now:         now,
	}
}

// List returns events newest first, optionally filtered by date.
func (r *EventRepository) List(f EventFilter) []Event {
	events := r.store.all()
	if f.When == "" || f.When == "all" {
		return events
	}
	today := r.now().Format(dateLayout)
	filtered := make([]Event, 0, len(events))
	for _, e := range events {
		upcoming := e.Date == "" || e.Date >= today
		if (f.When == "upcoming") == upcoming {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Get returns the event with id.
func (r *EventRepository) Get(id string) (Event, error) {
	e, ok := r.store.find(id)
	if !ok {
		return Event{}, ErrNotFound
	}
	return e, nil
}

// Create validates in, stores the mandatory image and persists the event.
func (r *EventRepository) Create(in EventInput, upload *Upload) (Event, error) {
	now := r.now()
	ev := Event{
		ID:            uuid.NewString(),
		ImagePosition: "center",
		ObjectFit:     "cover",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	verr := &ValidationError{}
	applyEventInput(&ev, in, verr)
	validateEvent(ev, verr)
	if upload == nil {
		verr.add("image", "image is required")
	}
	if err := verr.errOrNil(); err != nil {
		return Event{}, err
	}
	deriveEventExcerpt(&ev)

	src, err := r.images.Ingest(upload.Data, ev.Title, "events", r.constraints)
	if err != nil {
		return Event{}, err
	}
	ev.ImageSrc = src

	err = r.store.mutate(func(events []Event) ([]Event, error) {
		return append(events, ev), nil
	})
	if err != nil {
		r.images.discard(src)
		return Event{}, err
	}
	return ev, nil
}

// Update merges in over the stored event. The image is kept unless a new one
// is uploaded or RemoveImage is set. An upload is transcoded before the file
// is re-read and discarded if the event is missing or the result is invalid.
func (r *EventRepository) Update(id string, in EventInput, upload *Upload) (Event, error) {
	var newImage string
	if upload != nil {
		hint := ""
		if in.Title != nil {
			hint = *in.Title
		}
		if cur, ok := r.store.find(id); ok {
			draft, err := mergeEvent(cur, in)
			if err != nil {
				return Event{}, err
			}
			hint = draft.Title
		}
		src, err := r.images.Ingest(upload.Data, hint, "events", r.constraints)
		if err != nil {
			return Event{}, err
		}
		newImage = src
	}

	var (
		updated  Event
		oldImage string
		rest     []Event
	)
	err := r.store.mutate(func(events []Event) ([]Event, error) {
		i := indexOf(events, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		prev := events[i]
		ev, err := mergeEvent(prev, in)
		if err != nil {
			return nil, err
		}
		deriveEventExcerpt(&ev)
		switch {
		case newImage != "":
			oldImage = prev.ImageSrc
			ev.ImageSrc = newImage
		case in.RemoveImage:
			oldImage = prev.ImageSrc
			ev.ImageSrc = ""
		}
		ev.UpdatedAt = r.now()
		events[i] = ev
		updated = ev
		rest = events
		return events, nil
	})
	if err != nil {
		r.images.discard(newImage)
		return Event{}, err
	}
	if oldImage != "" && oldImage != newImage && !imageInUse(rest, oldImage) {
		r.images.discard(oldImage)
	}
	return updated, nil
}

// mergeEvent returns prev with in applied, or the validation error.
func mergeEvent(prev Event, in EventInput) (Event, error) {
	ev := prev
	verr := &ValidationError{}
	applyEventInput(&ev, in, verr)
	validateEvent(ev, verr)
	if err := verr.errOrNil(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Delete removes the event and, when nothing else references it, its image.
func (r *EventRepository) Delete(id string) error {
	var (
		image string
		rest  []Event
	)
	err := r.store.mutate(func(events []Event) ([]Event, error) {
		i := indexOf(events, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		image = events[i].ImageSrc
		rest = append(events[:i:i], events[i+1:]...)
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

func applyEventInput(ev *Event, in EventInput, verr *ValidationError) {
	setTrimmed(&ev.Title, in.Title)
	setTrimmed(&ev.Date, in.Date)
	setTrimmed(&ev.Description, in.Description)
	setTrimmed(&ev.ImageAlt, in.ImageAlt)
	setTrimmed(&ev.Link, in.Link)
	setNonEmpty(&ev.Excerpt, in.Excerpt)
	if in.ImagePosition != nil {
		if v := strings.ToLower(strings.TrimSpace(*in.ImagePosition)); v != "" {
			ev.ImagePosition = v
		}
	}
	if in.ObjectFit != nil {
		if v := strings.ToLower(strings.TrimSpace(*in.ObjectFit)); v != "" {
			ev.ObjectFit = v
		}
	}
}

func validateEvent(ev Event, verr *ValidationError) {
	if ev.Title == "" {
		verr.add("title", "title is required")
	}
	if ev.Description == "" {
		verr.add("description", "description is required")
	}
	if ev.Date != "" {
		if _, err := time.Parse(dateLayout, ev.Date); err != nil {
			verr.add("date", "date must use YYYY-MM-DD")
		}
	}
	if ev.Link != "" && markdown.SafeURL(ev.Link) == "" {
		verr.add("link", "link must be a relative path or an http(s) URL")
	}
	if !slices.Contains(imagePositions, ev.ImagePosition) {
		verr.add("imagePosition", "imagePosition must be one of "+strings.Join(imagePositions, ", "))
	}
	if !slices.Contains(objectFits, ev.ObjectFit) {
		verr.add("objectFit", "objectFit must be one of "+strings.Join(objectFits, ", "))
	}
}

func deriveEventExcerpt(ev *Event) {
	if ev.Excerpt == "" {
		ev.Excerpt = DeriveExcerpt(ev.Description, eventExcerptLength)
	}
}
