package response

// Profile is an enriched discovery candidate
type Profile struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	IsNameHidden bool      `json:"isNameHidden"`
	Age          int       `json:"age"`
	Gender       string    `json:"gender"`
	Bio          string    `json:"bio,omitempty"`
	DistanceKm   *float64  `json:"distanceKm,omitempty"`
	Images       []string  `json:"images"`
	PrimaryImage string    `json:"primaryImage"`
	Hobbies      []string  `json:"hobbies"`
	Languages    []string  `json:"languages"`
	Prompts      []*string `json:"prompts"`
}

// ProfilesResponse wraps a discovery batch
type ProfilesResponse struct {
	Profiles []Profile `json:"profiles"`
}

// UserSummary is the counterpart shown next to an invitation or chat
type UserSummary struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	IsNameHidden bool   `json:"isNameHidden"`
	Age          int    `json:"age,omitempty"`
	PrimaryImage string `json:"primaryImage"`
}
