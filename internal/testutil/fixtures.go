package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
)

// Fixtures seeds documents into a store, failing the test on any error
type Fixtures struct {
	t     *testing.T
	store dao.DocumentStore
}

// NewFixtures creates a fixture builder over store
func NewFixtures(t *testing.T, store dao.DocumentStore) *Fixtures {
	return &Fixtures{t: t, store: store}
}

func (f *Fixtures) create(collection string, doc any) {
	f.t.Helper()
	if err := f.store.Create(context.Background(), collection, doc); err != nil {
		f.t.Fatalf("seed %s: %v", collection, err)
	}
}

// User seeds a user with zero counters
func (f *Fixtures) User(id, name string) *entity.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := &entity.User{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
	f.create(entity.CollectionUsers, u)
	return u
}

// UserWithCounters seeds a user holding the given counters
func (f *Fixtures) UserWithCounters(id string, c entity.Counters) *entity.User {
	f.t.Helper()
	u := &entity.User{
		ID:                            id,
		Name:                          id,
		ActiveSentInvitationCount:     c.Sent,
		ActiveReceivedInvitationCount: c.Received,
		ActiveChatCount:               c.Chats,
	}
	f.create(entity.CollectionUsers, u)
	return u
}

// Biodata seeds a biodata row for userID
func (f *Fixtures) Biodata(userID, name string, age int, gender string, hobbies ...string) *entity.Biodata {
	f.t.Helper()
	b := &entity.Biodata{ID: "bio-" + userID, UserID: userID, Name: name, Age: age, Gender: gender, Hobbies: hobbies}
	f.create(entity.CollectionBiodata, b)
	return b
}

// Location seeds a location for userID
func (f *Fixtures) Location(userID string, lat, lon float64) {
	f.t.Helper()
	f.create(entity.CollectionLocations, &entity.Location{ID: "loc-" + userID, UserID: userID, Latitude: lat, Longitude: lon})
}

// Preference seeds a preference for userID. maxKm <= 0 leaves distance unset.
func (f *Fixtures) Preference(userID string, minAge, maxAge int, gender string, maxKm float64, hobbies ...string) {
	f.t.Helper()
	p := &entity.Preference{
		ID:               "pref-" + userID,
		UserID:           userID,
		MinAge:           minAge,
		MaxAge:           maxAge,
		PreferredGender:  gender,
		PreferredHobbies: hobbies,
	}
	if maxKm > 0 {
		p.MaxDistanceKm = &maxKm
	}
	f.create(entity.CollectionPreferences, p)
}

// Settings seeds the privacy toggles for userID
func (f *Fixtures) Settings(userID string, incognito, hideName bool) {
	f.t.Helper()
	f.create(entity.CollectionSettings, &entity.Settings{ID: "set-" + userID, UserID: userID, IsIncognito: incognito, IsHideName: hideName})
}

// Images seeds image slots for userID in order
func (f *Fixtures) Images(userID string, urls ...string) {
	f.t.Helper()
	img := &entity.Image{ID: "img-" + userID, UserID: userID}
	slots := []*string{&img.Image1, &img.Image2, &img.Image3, &img.Image4, &img.Image5, &img.Image6}
	for i, u := range urls {
		if i < len(slots) {
			*slots[i] = u
		}
	}
	f.create(entity.CollectionImages, img)
}

// Completed marks userID's onboarding as complete
func (f *Fixtures) Completed(userID string) {
	f.t.Helper()
	f.create(entity.CollectionCompletionStatus, &entity.CompletionStatus{ID: "cs-" + userID, UserID: userID, IsAllCompleted: true})
}

// Hobby seeds a hobby label
func (f *Fixtures) Hobby(id, label string) {
	f.t.Helper()
	f.create(entity.CollectionHobbies, &entity.Hobby{ID: id, Label: label})
}

// Language seeds a language label
func (f *Fixtures) Language(id, label string) {
	f.t.Helper()
	f.create(entity.CollectionLanguages, &entity.Language{ID: id, Label: label})
}

// Prompts seeds prompt answers for userID
func (f *Fixtures) Prompts(userID string, answers ...string) {
	f.t.Helper()
	p := &entity.Prompt{ID: "prompt-" + userID, UserID: userID}
	for _, a := range answers {
		a := a
		p.Answers = append(p.Answers, &a)
	}
	f.create(entity.CollectionPrompts, p)
}

// Connection seeds a connection in status with a zero proposal
func (f *Fixtures) Connection(id, senderID, receiverID string, status entity.ConnectionStatus) *entity.Connection {
	f.t.Helper()
	now := time.Now().UTC()
	c := &entity.Connection{
		ID:                 id,
		SenderID:           senderID,
		ReceiverID:         receiverID,
		Status:             status,
		VisibleToReceiver:  true,
		DateProposalStatus: entity.ProposalNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	f.create(entity.CollectionConnections, c)
	return c
}

// Get loads a document, failing the test if it is missing
func Get[T any](t *testing.T, store dao.DocumentStore, collection, id string) *T {
	t.Helper()
	var out T
	if err := store.Get(context.Background(), collection, id, &out); err != nil {
		t.Fatalf("get %s/%s: %v", collection, id, err)
	}
	return &out
}
