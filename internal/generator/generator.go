// Package generator synthesizes fake profile documents.
package generator

import (
	"sync"
	"time"

	"github.com/jaswdr/faker/v2"

	"github.com/personagen/personagen/internal/model"
)

const (
	// defaultMinAge applies when no age filter is given.
	defaultMinAge = 18
	// maxAge bounds date-of-birth generation.
	maxAge = 80
)

var educations = []string{"High School", "Bachelor's", "Master's", "PhD"}

// Generator produces synthetic profile documents.
// The underlying faker source is not safe for concurrent use, so Profile
// serializes access with a mutex.
type Generator struct {
	mu    sync.Mutex
	faker faker.Faker
}

// New creates a Generator with a time-seeded faker.
func New() *Generator {
	return &Generator{faker: faker.New()}
}

// Profile synthesizes one profile document honoring the filter.
//
// The male-name generator runs only when the gender filter is exactly
// "male"; every other value, including unset, takes the female-name path.
// The reported gender field is the filter value when set, otherwise a
// random choice.
func (g *Generator) Profile(f model.ProfileFilter) *model.Profile {
	g.mu.Lock()
	defer g.mu.Unlock()

	person := g.faker.Person()
	address := g.faker.Address()

	var name string
	if f.Gender == model.GenderMale {
		name = person.NameMale()
	} else {
		name = person.NameFemale()
	}

	gender := f.Gender
	if gender == "" {
		gender = g.faker.RandomStringElement([]string{model.GenderMale, model.GenderFemale})
	}

	country := f.Country
	if country == "" {
		country = address.Country()
	}

	// Age zero counts as unset and takes the adult minimum.
	minAge := defaultMinAge
	if f.Age != nil && *f.Age > 0 {
		minAge = *f.Age
	}

	return &model.Profile{
		Name:  name,
		Email: g.faker.Internet().Email(),
		Phone: g.faker.Phone().Number(),
		Address: model.Address{
			Street:  address.StreetAddress(),
			City:    address.City(),
			State:   address.State(),
			Zip:     address.PostCode(),
			Country: country,
		},
		Geo: model.Geo{
			Lat: address.Latitude(),
			Lng: address.Longitude(),
		},
		DOB:       g.dateOfBirth(minAge),
		Gender:    gender,
		Education: g.faker.RandomStringElement(educations),
		Family: model.Family{
			Spouse:   person.Name(),
			Children: []string{person.FirstName(), person.FirstName()},
		},
	}
}

// dateOfBirth picks a random birth date for someone aged between minAge and
// maxAge, rendered as an ISO 8601 date.
func (g *Generator) dateOfBirth(minAge int) string {
	now := time.Now()
	oldest := now.AddDate(-maxAge, 0, 0)
	youngest := now.AddDate(-minAge, 0, 0)
	if youngest.Before(oldest) {
		youngest = oldest
	}

	dob := g.faker.Time().TimeBetween(oldest, youngest)
	return dob.Format("2006-01-02")
}
