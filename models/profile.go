package models

type Profile struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	Name                string `json:"name"`
	WalletAddress       string `json:"wallet_address"`
	Reputation          int    `json:"reputation"`
	TotalTicketsMinted  int    `json:"total_tickets_minted"`
	TotalEventsAttended int    `json:"total_events_attended"`
	TotalFlags          int    `json:"total_flags"`
}
