package model

// SeedFile is the YAML document consumed by the seed command: a brand
// roster plus a list of historical club releases.
type SeedFile struct {
	Brands []SeedBrand `yaml:"brands"`
	Clubs  []SeedClub  `yaml:"clubs"`
}

// SeedBrand carries brand metadata the scrape path never sees.
type SeedBrand struct {
	Name    string `yaml:"name"`
	Country string `yaml:"country"`
	Website string `yaml:"website"`
}

// SeedClub is one historical release in a seed file.
type SeedClub struct {
	Brand       string   `yaml:"brand"`
	Model       string   `yaml:"model"`
	Year        int      `yaml:"year"`
	ClubType    string   `yaml:"club_type"`
	MSRP        *float64 `yaml:"msrp"`
	SkillLevel  string   `yaml:"skill_level"`
	Description string   `yaml:"description"`
}
