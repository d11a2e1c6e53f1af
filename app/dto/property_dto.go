// Package dto contains Data Transfer Objects for API request and response structures
package dto

// PropertyDTO represents a property listing in API responses
type PropertyDTO struct {
	ID        uint    `json:"id" example:"42"`
	Title     string  `json:"title" example:"Bright 2-bedroom apartment"`
	Price     int64   `json:"price" example:"425000"`
	Type      string  `json:"type" example:"apartment"`
	Location  string  `json:"location" example:"Keizersgracht 123, Amsterdam"`
	City      string  `json:"city" example:"Amsterdam"`
	Size      int     `json:"size" example:"85"`
	Rooms     int     `json:"rooms" example:"3"`
	Image     *string `json:"image,omitempty"`
	CreatedAt string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// CreatePropertyRequest represents the admin payload for creating a listing
type CreatePropertyRequest struct {
	Title    string  `json:"title" validate:"required,min=3,max=255" example:"Bright 2-bedroom apartment"`
	Price    int64   `json:"price" validate:"required,gt=0" example:"425000"`
	Type     string  `json:"type" validate:"required,oneof=apartment house studio penthouse" example:"apartment"`
	Location string  `json:"location" validate:"required,min=3,max=500" example:"Keizersgracht 123, Amsterdam"`
	City     string  `json:"city" validate:"required,min=2,max=100" example:"Amsterdam"`
	Size     int     `json:"size" validate:"required,gt=0" example:"85"`
	Rooms    int     `json:"rooms" validate:"required,gte=0,lte=50" example:"3"`
	Image    *string `json:"image,omitempty" validate:"omitempty,url"`
}

// UpdatePropertyRequest represents the admin payload for updating a listing
type UpdatePropertyRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Price    *int64  `json:"price,omitempty" validate:"omitempty,gt=0"`
	Type     *string `json:"type,omitempty" validate:"omitempty,oneof=apartment house studio penthouse"`
	Location *string `json:"location,omitempty" validate:"omitempty,min=3,max=500"`
	City     *string `json:"city,omitempty" validate:"omitempty,min=2,max=100"`
	Size     *int    `json:"size,omitempty" validate:"omitempty,gt=0"`
	Rooms    *int    `json:"rooms,omitempty" validate:"omitempty,gte=0,lte=50"`
	Image    *string `json:"image,omitempty" validate:"omitempty,url"`
}

// SearchPropertiesRequest represents search filters submitted by a user
type SearchPropertiesRequest struct {
	Query    *string `json:"query,omitempty" query:"query" validate:"omitempty,max=255" example:"canal view"`
	City     *string `json:"city,omitempty" query:"city" validate:"omitempty,max=100" example:"Amsterdam"`
	Type     *string `json:"type,omitempty" query:"type" validate:"omitempty,oneof=apartment house studio penthouse"`
	MinPrice *int64  `json:"min_price,omitempty" query:"min_price" validate:"omitempty,gte=0"`
	MaxPrice *int64  `json:"max_price,omitempty" query:"max_price" validate:"omitempty,gte=0"`
	MinRooms *int    `json:"min_rooms,omitempty" query:"min_rooms" validate:"omitempty,gte=0"`
	Page     int     `json:"page" query:"page" validate:"omitempty,gte=1" example:"1"`
	PageSize int     `json:"page_size" query:"page_size" validate:"omitempty,gte=1,lte=100" example:"20"`
}

// SearchPropertiesResponse represents a paginated search result
type SearchPropertiesResponse struct {
	Properties []PropertyDTO `json:"properties"`
	Total      int64         `json:"total" example:"137"`
	Page       int           `json:"page" example:"1"`
	PageSize   int           `json:"page_size" example:"20"`
}

// SearchHistoryItemDTO represents one recorded search
type SearchHistoryItemDTO struct {
	ID        uint    `json:"id"`
	Query     *string `json:"query,omitempty"`
	City      *string `json:"city,omitempty"`
	Type      *string `json:"type,omitempty"`
	MinPrice  *int64  `json:"min_price,omitempty"`
	MaxPrice  *int64  `json:"max_price,omitempty"`
	Timestamp string  `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}
