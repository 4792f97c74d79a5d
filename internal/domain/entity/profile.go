package entity

import "time"

// ImageSlots is the number of image_N slots on an Image document.
const ImageSlots = 6

// Biodata holds the descriptive profile of a user. Hobbies and Languages
// reference documents in the hobbies and languages collections.
type Biodata struct {
	ID        string   `bson:"_id" json:"id"`
	UserID    string   `bson:"user" json:"user"`
	Name      string   `bson:"name" json:"name"`
	Age       int      `bson:"age" json:"age"`
	Gender    string   `bson:"gender" json:"gender"`
	Bio       string   `bson:"bio,omitempty" json:"bio,omitempty"`
	Hobbies   []string `bson:"hobbies,omitempty" json:"hobbies,omitempty"`
	Languages []string `bson:"languages,omitempty" json:"languages,omitempty"`
}

// Location is the last known position of a user.
type Location struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user" json:"user"`
	Latitude  float64   `bson:"latitude" json:"latitude"`
	Longitude float64   `bson:"longitude" json:"longitude"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Preference drives preference-filtered discovery. Zero bounds are unset.
type Preference struct {
	ID               string   `bson:"_id" json:"id"`
	UserID           string   `bson:"user" json:"user"`
	MinAge           int      `bson:"min_age" json:"minAge"`
	MaxAge           int      `bson:"max_age" json:"maxAge"`
	PreferredGender  string   `bson:"preferred_gender" json:"preferredGender"`
	MaxDistanceKm    *float64 `bson:"max_distance_km,omitempty" json:"maxDistanceKm,omitempty"`
	PreferredHobbies []string `bson:"preferred_hobbies,omitempty" json:"preferredHobbies,omitempty"`
}

// Settings holds privacy toggles. A missing document means all false.
type Settings struct {
	ID          string `bson:"_id" json:"id"`
	UserID      string `bson:"user" json:"user"`
	IsIncognito bool   `bson:"is_incognito" json:"isIncognito"`
	IsHideName  bool   `bson:"is_hide_name" json:"isHideName"`
}

// Image stores up to six photo URLs; Image1 is the primary photo.
type Image struct {
	ID     string `bson:"_id" json:"id"`
	UserID string `bson:"user" json:"user"`
	Image1 string `bson:"image_1,omitempty" json:"image_1,omitempty"`
	Image2 string `bson:"image_2,omitempty" json:"image_2,omitempty"`
	Image3 string `bson:"image_3,omitempty" json:"image_3,omitempty"`
	Image4 string `bson:"image_4,omitempty" json:"image_4,omitempty"`
	Image5 string `bson:"image_5,omitempty" json:"image_5,omitempty"`
	Image6 string `bson:"image_6,omitempty" json:"image_6,omitempty"`
}

// Slots returns image_1..image_6 in order.
func (i *Image) Slots() [ImageSlots]string {
	return [ImageSlots]string{i.Image1, i.Image2, i.Image3, i.Image4, i.Image5, i.Image6}
}

// URLs returns the non-empty image URLs in slot order.
func (i *Image) URLs() []string {
	urls := make([]string, 0, ImageSlots)
	for _, u := range i.Slots() {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// Hobby is a reference label.
type Hobby struct {
	ID    string `bson:"_id" json:"id"`
	Label string `bson:"label" json:"label"`
}

// Language is a reference label.
type Language struct {
	ID    string `bson:"_id" json:"id"`
	Label string `bson:"label" json:"label"`
}

// Prompt holds free-text answers to the profile prompts, one per slot.
type Prompt struct {
	ID      string    `bson:"_id" json:"id"`
	UserID  string    `bson:"user" json:"user"`
	Answers []*string `bson:"answers" json:"answers"`
}

// CompletionStatus tracks onboarding progress.
type CompletionStatus struct {
	ID             string `bson:"_id" json:"id"`
	UserID         string `bson:"user" json:"user"`
	IsAllCompleted bool   `bson:"is_all_completed" json:"isAllCompleted"`
}

// HasShown records that Who was presented to User.
type HasShown struct {
	ID           string    `bson:"_id" json:"id"`
	UserID       string    `bson:"user" json:"user"`
	WhoID        string    `bson:"who" json:"who"`
	IsIgnore     bool      `bson:"is_ignore" json:"isIgnore"`
	IsInterested bool      `bson:"is_interested" json:"isInterested"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
}
