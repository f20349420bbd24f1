package domain

// CatalogItem is one sellable flower-shipment line offered by a
// farm/truck combination. Items are loaded wholesale from the backend
// and never mutated in place; total_stems is trusted as delivered.
type CatalogItem struct {
	Variety    string   `json:"variety"`
	Length     int      `json:"length"`
	BoxCount   int      `json:"box_count"`
	PackRate   int      `json:"pack_rate"`
	TotalStems int      `json:"total_stems"`
	FarmName   string   `json:"farm_name"`
	TruckName  string   `json:"truck_name"`
	Price      *float64 `json:"price,omitempty"`
}

// FlowersResponse is the payload of GET /flowers.
type FlowersResponse struct {
	Flowers []CatalogItem `json:"flowers"`
}
