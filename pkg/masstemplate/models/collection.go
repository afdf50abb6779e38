package models

// CollectionColumns holds resolved 0-based column indices of the
// Collection worksheet. A missing column is -1.
type CollectionColumns struct {
	// Create marks rows that should produce template rows.
	Create int `json:"create"`
	// VariationID groups rows that belong to the same listing.
	VariationID int `json:"variation_id"`
	// SKU is the seller SKU of a single variation.
	SKU int `json:"sku"`
	// Brand is the brand name.
	Brand int `json:"brand"`
	// OptionName is the option label for variation 1.
	OptionName int `json:"option_name"`
	// ProductName is the listing title.
	ProductName int `json:"product_name"`
	// Description is the listing description.
	Description int `json:"description"`
	// Category is the full category path, possibly prefixed with a numeric code.
	Category int `json:"category"`
	// DetailCount is the number of detail images (0..8).
	DetailCount int `json:"detail_count"`
}

// FillColumns returns the columns carried down a variation group, skipping
// the ones that were not found.
func (c CollectionColumns) FillColumns() []int {
	var cols []int
	for _, idx := range []int{c.VariationID, c.Brand, c.ProductName, c.Description, c.Category, c.DetailCount} {
		if idx >= 0 {
			cols = append(cols, idx)
		}
	}
	return cols
}

// TemplateDict maps a normalized top-level category key to the ordered
// column headers of its upload template.
type TemplateDict map[string][]string
