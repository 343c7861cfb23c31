// Package model defines domain entities for the application.
package model

// Gender values accepted by the generation endpoints.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// SupportedCountries is the fixed list served by GET /countries.
var SupportedCountries = []string{"US", "IN", "UK", "CA", "AU"}

// ProfileFilter narrows profile generation. Zero values mean "unset":
// a nil Age and empty Gender/Country leave the corresponding field to the
// generator. Requests with identical filters share one cache entry.
type ProfileFilter struct {
	Age     *int
	Gender  string
	Country string
}

// Address is the postal part of a profile.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Geo holds coordinates for a profile.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Family holds the synthetic relatives of a profile.
type Family struct {
	Spouse   string   `json:"spouse"`
	Children []string `json:"children"`
}

// Profile is a purely synthetic, non-persisted personal-data record.
// DOB is an ISO 8601 date (YYYY-MM-DD).
type Profile struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Address   Address `json:"address"`
	Geo       Geo     `json:"geo"`
	DOB       string  `json:"dob"`
	Gender    string  `json:"gender"`
	Education string  `json:"education"`
	Family    Family  `json:"family"`
}
