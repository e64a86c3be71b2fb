package model

import "time"

// Brand is a club manufacturer (Titleist, Callaway, TaylorMade, ...).
// Brand names are unique case-insensitively.
type Brand struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country,omitempty"`
	Website   string    `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ClubType is one entry in the controlled category vocabulary
// (Driver, Fairway Wood, Hybrid, Iron, Wedge, Putter, ...).
type ClubType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Club is a canonical catalog entry. Its identity is
// (brand_id, model_name, year_released); every retail listing that
// resolves to the same identity lands on the same row.
type Club struct {
	ID           int64     `json:"id"`
	BrandID      int64     `json:"brand_id"`
	BrandName    string    `json:"brand_name,omitempty"`
	ClubTypeID   int64     `json:"club_type_id"`
	ClubTypeName string    `json:"club_type,omitempty"`
	ModelName    string    `json:"model_name"`
	YearReleased int       `json:"year_released"`
	MSRP         *float64  `json:"msrp,omitempty"`
	CurrentPrice *float64  `json:"current_price,omitempty"`
	IsCurrent    bool      `json:"is_current"`
	Description  string    `json:"description,omitempty"`
	SkillLevel   string    `json:"skill_level,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
