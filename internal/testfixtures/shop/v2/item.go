// Package shop declares the second Item type.
package shop

// Item is a catalog item with a price.
type Item struct {
	SKU   string
	Cents int64
}
