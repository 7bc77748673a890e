package pipeline

import "github.com/law-makers/dutyscrape/pkg/models"

// Plan expands codes into batch items. Without countries there is one item
// per code; with countries the order is country-major, every code for the
// first country before any code for the second.
func Plan(codes []string, countries []models.Country) []models.Item {
	if len(countries) == 0 {
		items := make([]models.Item, 0, len(codes))
		for _, c := range codes {
			items = append(items, models.Item{Code: c})
		}
		return items
	}

	items := make([]models.Item, 0, len(codes)*len(countries))
	for i := range countries {
		country := &countries[i]
		for _, c := range codes {
			items = append(items, models.Item{Code: c, Country: country})
		}
	}
	return items
}
