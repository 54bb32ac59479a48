package climate

// PresetLocations returns the built-in study locations offered by the API.
// The first five are the South African metros the project was built around;
// the rest are major sub-Saharan cities used in comparative studies.
func PresetLocations() []Location {
	return []Location{
		{Name: "Soweto, Johannesburg", Latitude: -26.2678, Longitude: 27.8607, Description: "Major township in Johannesburg - Case study location"},
		{Name: "Johannesburg CBD", Latitude: -26.2041, Longitude: 28.0473, Description: "Johannesburg Central Business District"},
		{Name: "Cape Town", Latitude: -33.9249, Longitude: 18.4241, Description: "Cape Town metropolitan area"},
		{Name: "Durban", Latitude: -29.8587, Longitude: 31.0218, Description: "Durban metropolitan area"},
		{Name: "Pretoria", Latitude: -25.7479, Longitude: 28.2293, Description: "Pretoria/Tshwane metropolitan area"},
		{Name: "Nairobi", Latitude: -1.2864, Longitude: 36.8172},
		{Name: "Lagos", Latitude: 6.5244, Longitude: 3.3792},
		{Name: "Accra", Latitude: 5.6037, Longitude: -0.1870},
		{Name: "Kampala", Latitude: 0.3476, Longitude: 32.5825},
		{Name: "Dar es Salaam", Latitude: -6.7924, Longitude: 39.2083},
		{Name: "Harare", Latitude: -17.8292, Longitude: 31.0522},
		{Name: "Lusaka", Latitude: -15.3875, Longitude: 28.3228},
	}
}
