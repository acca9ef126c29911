package models

import "time"

type Link struct {
	ID           int64      `json:"id" db:"id"`
	OriginalURL  string     `json:"original_url" db:"original_url"`
	ShortCode    string     `json:"short_code" db:"short_code"`
	OwnerID      *int64     `json:"owner_id,omitempty" db:"owner_id"`
	IsPermanent  bool       `json:"is_permanent" db:"is_permanent"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	LastAccessed time.Time  `json:"last_accessed" db:"last_accessed"`
	Clicks       int64      `json:"clicks" db:"clicks"`
}

type CreateLinkRequest struct {
	OriginalURL string     `json:"original_url" validate:"required,url"`
	CustomAlias string     `json:"custom_alias,omitempty" validate:"omitempty,min=4"`
	IsPermanent *bool      `json:"is_permanent,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type UpdateURLRequest struct {
	OriginalURL string `json:"original_url" validate:"required"`
}

type SetExpiryRequest struct {
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
}

type LinkResponse struct {
	ShortCode   string `json:"short_code"`
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
}
