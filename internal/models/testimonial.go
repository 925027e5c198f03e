package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTestimonialRole is used when the author gives no role.
const DefaultTestimonialRole = "MovieFlix User"

// MaxTestimonialLen caps the review text.
const MaxTestimonialLen = 500

// Testimonial is a public review. Unrelated to accounts.
type Testimonial struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Rating     int       `json:"rating"`
	Text       string    `json:"text"`
	Avatar     string    `json:"avatar,omitempty"`
	IsApproved bool      `json:"isApproved"`
	CreatedAt  time.Time `json:"createdAt"`
}
