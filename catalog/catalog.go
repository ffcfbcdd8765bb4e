// Package catalog holds the built-in product list and user directory.
//
// The catalog is used when no configuration file overrides it. The user
// directory is embedded from users.json at compile time.
package catalog

import (
	_ "embed"
)

// Users is the embedded users.json, a JSON array of
// {id, first_name, last_name} objects.
//
//go:embed users.json
var Users []byte

// Product is a product name and its servers in display order.
type Product struct {
	Name    string
	Servers []string
}

// Products returns the built-in product list. Each call returns a fresh copy.
func Products() []Product {
	return []Product{
		{
			Name: "CorporateTube",
			Servers: []string{
				"test.qa1.corporate.tube",
				"test.qa2.corporate.tube",
				"test.qa3.corporate.tube",
			},
		},
		{
			Name: "WebCast",
			Servers: []string{
				"webcast-stg.movingimage.com",
				"webcast-qa1.movingimage.com",
			},
		},
		{
			Name: "Any other product",
			Servers: []string{
				"other.qa1.movingimage.com",
				"other.qa2.movingimage.com",
				"other.qa3.movingimage.com",
			},
		},
	}
}
