package config

// City represents a supported metro configuration. AddressSuffix is
// appended to society/locality strings before geocoding so ambiguous
// names resolve inside the right metro; SanityRadiusKm flags road
// distances that cannot belong to the same market.
type City struct {
	Name           string    `json:"name"`
	Center         []float64 `json:"center"`
	AddressSuffix  string    `json:"address_suffix"`
	SanityRadiusKm float64   `json:"sanity_radius_km"`
}

// SupportedCities is the list of metros the dashboard understands
var SupportedCities = []City{
	{
		Name:           "pune",
		Center:         []float64{18.5204, 73.8567},
		AddressSuffix:  "Pune, Maharashtra",
		SanityRadiusKm: 60,
	},
	{
		Name:           "mumbai",
		Center:         []float64{19.0760, 72.8777},
		AddressSuffix:  "Mumbai, Maharashtra",
		SanityRadiusKm: 80,
	},
	{
		Name:           "nagpur",
		Center:         []float64{21.1458, 79.0882},
		AddressSuffix:  "Nagpur, Maharashtra",
		SanityRadiusKm: 50,
	},
	// Add more metros here as needed
}

// GetCityNames returns a list of supported city names
func GetCityNames() []string {
	names := make([]string, len(SupportedCities))
	for i, city := range SupportedCities {
		names[i] = city.Name
	}
	return names
}

// GetCityByName returns a city configuration by name
func GetCityByName(name string) *City {
	for _, city := range SupportedCities {
		if city.Name == name {
			return &city
		}
	}
	return nil
}
