package model

// Availability states a catalog item can be in.
const (
	AvailabilityAvailable    = "available"
	AvailabilityComingSoon   = "coming_soon"
	AvailabilitySoldOut      = "sold_out"
	AvailabilityRetiringSoon = "retiring_soon"
)

// CatalogItem is a normalized product record keyed by its external set id.
type CatalogItem struct {
	SetID        string  `json:"setId"`
	Name         string  `json:"name"`
	ImageURL     string  `json:"imageUrl"`
	SetURL       string  `json:"setUrl"`
	Theme        string  `json:"theme"`
	ThemeID      int     `json:"themeId"`
	Pieces       int     `json:"pieces"`
	Year         int     `json:"year"`
	RefPrice     float64 `json:"refPrice"`
	Availability string  `json:"availability"`
	LastUpdated  int64   `json:"lastUpdated"`
}

// PriceObservation is one retailer price snapshot for one catalog item.
// Display fields are denormalized from the catalog item for read efficiency.
type PriceObservation struct {
	SetID      string  `json:"setId"`
	Retailer   string  `json:"retailer"`
	Price      float64 `json:"price"`
	RefPrice   float64 `json:"refPrice"`
	URL        string  `json:"url"`
	InStock    bool    `json:"inStock"`
	ObservedAt int64   `json:"observedAt"`
	Name       string  `json:"name"`
	ImageURL   string  `json:"imageUrl"`
	Theme      string  `json:"theme"`
	Pieces     int     `json:"pieces"`
}

// Deal is a price observation that cleared the discount and stock bar.
type Deal struct {
	PriceObservation
	PercentOff  int     `json:"percentOff"`
	Savings     float64 `json:"savings"`
	LastUpdated int64   `json:"lastUpdated"`
}

// PairKey joins a set id and retailer id into the shared price/deal key suffix.
func PairKey(setID, retailer string) string {
	return setID + "_" + retailer
}
