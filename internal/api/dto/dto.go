package dto

import "time"

type CreateTaskRequest struct {
	ExternalID int64   `json:"external_id" binding:"required"`
	Section    string  `json:"section" binding:"required"`
	Username   *string `json:"username,omitempty"`
	FullName   *string `json:"full_name,omitempty"`
}

type ListTasksRequest struct {
	ExternalID int64  `form:"external_id" binding:"required"`
	Section    string `form:"section"`
	Status     string `form:"status"`
	PageSize   int    `form:"page_size"`
	Cursor     string `form:"cursor"`
}

type ListTasksResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type TaskDTO struct {
	ID             int64      `json:"id"`
	Section        string     `json:"section"`
	Status         string     `json:"status"`
	Price          int64      `json:"price"`
	Result         *ResultDTO `json:"result,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	DeliveryFailed bool       `json:"delivery_failed"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type ResultDTO struct {
	FilePath string `json:"file_path,omitempty"`
	FileURL  string `json:"file_url,omitempty"`
	Message  string `json:"message,omitempty"`
}

type SelectSectionRequest struct {
	ExternalID int64   `json:"external_id" binding:"required"`
	Username   *string `json:"username,omitempty"`
	FullName   *string `json:"full_name,omitempty"`
}

type DraftEventRequest struct {
	ExternalID  int64  `json:"external_id" binding:"required"`
	Event       string `json:"event" binding:"required"`
	Prompt      string `json:"prompt,omitempty"`
	FileID      string `json:"file_id,omitempty"`
	OptionName  string `json:"option_name,omitempty"`
	OptionValue string `json:"option_value,omitempty"`
}

type DraftDTO struct {
	Section string                 `json:"section"`
	Params  map[string]interface{} `json:"params"`
	Ready   bool                   `json:"ready"`
	Price   *int64                 `json:"price,omitempty"`
}

type BalanceResponse struct {
	ExternalID int64 `json:"external_id"`
	Balance    int64 `json:"balance"`
}

type TopUpRequest struct {
	ExternalID int64 `json:"external_id" binding:"required"`
	Amount     int64 `json:"amount" binding:"required"`
}

type GrantRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

type PriceDTO struct {
	Code     string `json:"code"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	IsActive bool   `json:"is_active"`
}

type SetPriceRequest struct {
	Code     string `json:"code" binding:"required"`
	Title    string `json:"title"`
	Cost     string `json:"cost"`
	Price    string `json:"price" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

type VoiceDTO struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Title string `json:"title"`
}

type BroadcastPreviewRequest struct {
	Message string `json:"message" binding:"required"`
}
