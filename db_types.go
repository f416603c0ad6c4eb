package blogboot

type SortField struct {
	Field     string `json:"field"`
	Direction int    `json:"direction"`
}

type PageRequest struct {
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Sort  SortField `json:"sort"`
}

// PageResponse is one window of a listing together with its metadata. It
// serializes to the list envelope used by the API (minus "success").
type PageResponse[T interface{}] struct {
	Contents []T `json:"data"`
	Count    int `json:"count"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	Pages    int `json:"pages"`
}

// Document is implemented by every type persisted through MongoRepository.
type Document interface {
	GetCollectionName() string
}
