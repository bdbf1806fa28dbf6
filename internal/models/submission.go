package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	SubmissionStatusPending = "pending"
)

// Suggestion - предложение материала от посетителя.
type Suggestion struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	URL               string         `db:"url" json:"url"`
	Title             *string        `db:"title" json:"title,omitempty"`
	Description       *string        `db:"description" json:"description,omitempty"`
	SuggestedCategory *string        `db:"suggested_category" json:"suggested_category,omitempty"`
	SuggestedTags     pq.StringArray `db:"suggested_tags" json:"suggested_tags"`
	Status            string         `db:"status" json:"status"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// DMCARequest - запрос правообладателя на удаление материала.
type DMCARequest struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	RequesterName      string    `db:"requester_name" json:"requester_name"`
	RequesterEmail     string    `db:"requester_email" json:"requester_email"`
	RequesterCompany   *string   `db:"requester_company" json:"requester_company,omitempty"`
	ContentURL         string    `db:"content_url" json:"content_url"`
	Reason             string    `db:"reason" json:"reason"`
	Description        string    `db:"description" json:"description"`
	GoodFaithStatement bool      `db:"good_faith_statement" json:"good_faith_statement"`
	Status             string    `db:"status" json:"status"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
