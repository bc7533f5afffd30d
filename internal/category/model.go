package category

// Category is a distinct product category with the number of products in it.
type Category struct {
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
}
