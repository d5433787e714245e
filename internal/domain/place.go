package domain

// Place is a maps-provider place result: identifier, display fields, and
// geometry. It is the upstream shape a Location is derived from.
type Place struct {
	PlaceID          string            `json:"place_id"`
	Name             string            `json:"name"`
	FormattedAddress string            `json:"formatted_address"`
	Components       AddressComponents `json:"components"`
	Lat              float64           `json:"lat"`
	Lng              float64           `json:"lng"`
}

// AddressComponents holds the parsed parts of a formatted address.
type AddressComponents struct {
	Number  string `json:"number"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zipcode string `json:"zipcode"`
}

// Prediction is a single autocomplete suggestion.
type Prediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
	MainText    string `json:"main_text"`
	SecondText  string `json:"secondary_text"`
}
