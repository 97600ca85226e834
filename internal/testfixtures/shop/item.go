// Package shop declares an Item type whose name collides with shop/v2.
package shop

// Item is a catalog item.
type Item struct {
	SKU  string
	Name string
}
