package models

import (
	"time"
)

type Event struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	Date          time.Time `json:"date"`
	Price         int64     `json:"price"` // smallest currency unit
	MaxTicket     int       `json:"max_ticket"`
	TicketSold    int       `json:"ticket_sold"`
	Organizer     string    `json:"organizer"`
	IsCancelled   bool      `json:"is_cancelled"`
	ReputationReq int       `json:"reputation_req"`
}

// Expired reports whether the event date has already passed.
func (e *Event) Expired(now time.Time) bool {
	return !e.Date.After(now)
}

// SoldOut reports whether no tickets remain.
func (e *Event) SoldOut() bool {
	return e.TicketSold >= e.MaxTicket
}
