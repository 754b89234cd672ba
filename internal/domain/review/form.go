// Package review implements the review submission form.
//
// The form keeps local state that is updated one field at a time. Submit validates a snapshot of
// that state, publishes the resulting review and clears the form.
package review

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/example/ec-product-card/internal/bus"
	"github.com/example/ec-product-card/internal/catalog"
)

type State int

const (
	Editing State = iota
	Submitted
)

func (s State) String() string {
	if s == Submitted {
		return "submitted"
	}
	return "editing"
}

// Field names match the HTML form inputs.
type Field string

const (
	FieldName      Field = "name"
	FieldBody      Field = "review"
	FieldRating    Field = "rating"
	FieldRecommend Field = "recommend"
)

const (
	RecommendYes = "yes"
	RecommendNo  = "no"
)

const (
	MsgNameRequired      = "Name required."
	MsgReviewRequired    = "Review required."
	MsgRatingRequired    = "Rating required."
	MsgRecommendRequired = "Recommendation required."
)

var ErrUnknownField = errors.New("unknown review field")

// ValidationError lists every problem found in one submit attempt
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid review: " + strings.Join(e.Problems, " ")
}

// Values is a snapshot of the form fields. Rating and Recommend are nil until chosen.
type Values struct {
	Name      string
	Body      string
	Rating    *int
	Recommend *string
}

type Form struct {
	bus    *bus.Bus
	values Values
	state  State
	errors []string
}

func NewForm(b *bus.Bus) *Form {
	return &Form{bus: b}
}

// Update sets one field from its raw input value. A rating outside 1..5 or a recommend
// other than yes/no leaves that field unset.
func (f *Form) Update(field Field, raw string) error {
	switch field {
	case FieldName:
		f.values.Name = raw
	case FieldBody:
		f.values.Body = raw
	case FieldRating:
		f.values.Rating = nil
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n >= 1 && n <= 5 {
			f.values.Rating = &n
		}
	case FieldRecommend:
		f.values.Recommend = nil
		if v := strings.ToLower(strings.TrimSpace(raw)); v == RecommendYes || v == RecommendNo {
			f.values.Recommend = &v
		}
	default:
		return ErrUnknownField
	}
	return nil
}

// Values returns a copy of the current field state
func (f *Form) Values() Values {
	v := f.values
	if v.Rating != nil {
		r := *v.Rating
		v.Rating = &r
	}
	if v.Recommend != nil {
		r := *v.Recommend
		v.Recommend = &r
	}
	return v
}

func (f *Form) State() State {
	return f.state
}

// Errors returns the problems from the last failed submit
func (f *Form) Errors() []string {
	return append([]string(nil), f.errors...)
}

// Submit validates the current values. On success it publishes the review on
// TopicReviewSubmitted, resets the form and returns the review.
func (f *Form) Submit(ctx context.Context) (*catalog.Review, error) {
	v := f.Values()

	var problems []string
	if strings.TrimSpace(v.Name) == "" {
		problems = append(problems, MsgNameRequired)
	}
	if strings.TrimSpace(v.Body) == "" {
		problems = append(problems, MsgReviewRequired)
	}
	if v.Rating == nil {
		problems = append(problems, MsgRatingRequired)
	}
	if v.Recommend == nil {
		problems = append(problems, MsgRecommendRequired)
	}
	if len(problems) > 0 {
		f.errors = problems
		f.state = Editing
		return nil, &ValidationError{Problems: append([]string(nil), problems...)}
	}

	review := catalog.Review{
		Name:      v.Name,
		Body:      v.Body,
		Rating:    *v.Rating,
		Recommend: *v.Recommend,
	}

	f.state = Submitted
	f.errors = nil
	f.bus.Publish(ctx, bus.TopicReviewSubmitted, review)
	f.reset()
	return &review, nil
}

func (f *Form) reset() {
	f.values = Values{}
	f.state = Editing
}
