package domain

// Restaurant is one catalog entry. ID is the store key of the entry; the
// remaining fields mirror the stored document.
type Restaurant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TimeRange  string `json:"timeRange"`
	LikesCount int    `json:"likesCount"`
	ImageURL   string `json:"imageURL"`
}

// RestaurantDocument is the stored shape under restaurants/{id}.
type RestaurantDocument struct {
	Name       string `json:"name" yaml:"name"`
	TimeRange  string `json:"timeRange" yaml:"timeRange"`
	LikesCount int    `json:"likesCount" yaml:"likesCount"`
	ImageURL   string `json:"imageURL" yaml:"imageURL"`
}
