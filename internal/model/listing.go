package model

import "time"

// RawListing is one product occurrence exactly as a source adapter
// extracted it, before any reconciliation. BrandText and ModelText are
// retailer copy, not catalog references; Price is nil when the page
// carried no parseable amount; Year is 0 when the source exposes no
// release year.
type RawListing struct {
	Source    string   `json:"source"`
	BrandText string   `json:"brand_text"`
	ModelText string   `json:"model_text"`
	ClubType  string   `json:"club_type"`
	Price     *float64 `json:"price,omitempty"`
	DetailURL string   `json:"detail_url"`
	InStock   bool     `json:"in_stock"`
	Year      int      `json:"year,omitempty"`
}

// ProductSource ties a canonical club to its listing on one retail
// source. At most one row exists per (club, source); re-crawls update
// it in place and advance LastChecked.
type ProductSource struct {
	ID          int64     `json:"id"`
	ClubID      int64     `json:"club_id"`
	SourceName  string    `json:"source_name"`
	ProductURL  string    `json:"product_url"`
	Price       *float64  `json:"price,omitempty"`
	InStock     bool      `json:"in_stock"`
	LastChecked time.Time `json:"last_checked"`
	CreatedAt   time.Time `json:"created_at"`
}
