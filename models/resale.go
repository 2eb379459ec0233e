package models

import (
	"time"
)

type ResaleListing struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	TicketID      string    `json:"ticket_id"`
	SellerID      string    `json:"seller_id"`
	SellerAddress string    `json:"seller_address"`
	Price         int64     `json:"price"`
	IsSold        bool      `json:"is_sold"`
	CreatedAt     time.Time `json:"created_at"`
}
