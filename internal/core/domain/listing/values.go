package listing

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/simnova/sharethrift/internal/core/domain"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxCategoryLength    = 100
	maxLocationLength    = 255
	maxImages            = 10
)

// State is the lifecycle state of an item listing.
type State string

const (
	StatePublished State = "Published"
	StatePaused    State = "Paused"
	StateCancelled State = "Cancelled"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[State][]State{
	StatePublished: {StatePaused, StateCancelled},
	StatePaused:    {StatePublished, StateCancelled},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateCancelled
}

// IsValid reports whether s is one of the enumerated states.
func (s State) IsValid() bool {
	switch s {
	case StatePublished, StatePaused, StateCancelled:
		return true
	}
	return false
}

// boundedText trims raw and checks it is non-empty and at most limit runes.
func boundedText(field, raw string, limit int) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", domain.InvariantError(field + " is required")
	}
	if utf8.RuneCountInString(v) > limit {
		return "", domain.InvariantError(fmt.Sprintf("%s must be at most %d characters", field, limit))
	}
	return v, nil
}

// Title is the short headline of a listing.
type Title string

func NewTitle(s string) (Title, error) {
	v, err := boundedText("title", s, maxTitleLength)
	return Title(v), err
}

// Description is the free-text body of a listing.
type Description string

func NewDescription(s string) (Description, error) {
	v, err := boundedText("description", s, maxDescriptionLength)
	return Description(v), err
}

// Category groups listings for browsing.
type Category string

func NewCategory(s string) (Category, error) {
	v, err := boundedText("category", s, maxCategoryLength)
	return Category(v), err
}

// Location is where the item can be picked up.
type Location string

func NewLocation(s string) (Location, error) {
	v, err := boundedText("location", s, maxLocationLength)
	return Location(v), err
}

// SharingPeriod is the window during which the sharer offers the item.
type SharingPeriod struct {
	Start time.Time
	End   time.Time
}

func NewSharingPeriod(start, end time.Time) (SharingPeriod, error) {
	if start.IsZero() || end.IsZero() {
		return SharingPeriod{}, domain.InvariantError("sharing period start and end are required")
	}
	if !start.Before(end) {
		return SharingPeriod{}, domain.InvariantError("sharing period start must be before end")
	}
	return SharingPeriod{Start: start.UTC(), End: end.UTC()}, nil
}

// Images is an ordered list of image URLs.
type Images []string

func NewImages(urls []string) (Images, error) {
	if len(urls) > maxImages {
		return nil, domain.InvariantError(fmt.Sprintf("a listing can have at most %d images", maxImages))
	}
	out := make(Images, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			return nil, domain.InvariantError("image url cannot be empty")
		}
		out = append(out, u)
	}
	return out, nil
}
