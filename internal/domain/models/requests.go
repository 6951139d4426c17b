package models

// Requests for the read API. Bound from the query string and validated in the handler.

type NewsRequest struct {
	Limit int `query:"limit" json:"limit" validate:"omitempty,gte=1,lte=100"`
}

type EventsRequest struct {
	Day int `query:"day" json:"day" validate:"gte=-7,lte=7"`
}
