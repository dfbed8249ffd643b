package tickets

import (
	"bytes"
	"encoding/json"

	"github.com/hyperjump/ticketrag/internal/models"
)

// ListingKind tags how a ticket-list payload was understood.
type ListingKind int

const (
	// ListingOK means Tickets holds the decoded list.
	ListingOK ListingKind = iota
	// ListingMalformed means no ticket array was found; Raw holds the payload.
	ListingMalformed
)

func (k ListingKind) String() string {
	if k == ListingOK {
		return "ok"
	}
	return "malformed"
}

// Listing is the normalized result of a ticket-list call.
type Listing struct {
	Kind    ListingKind
	Tickets []models.Ticket
	Raw     json.RawMessage
}

// listKeys are the envelope keys the ticket service has used for the list, in lookup order.
var listKeys = []string{"tickets", "data", "results"}

// NormalizeListing decodes a ticket-list payload that is either a bare array or an object
// carrying the array under one of listKeys.
func NormalizeListing(raw []byte) Listing {
	if tickets, ok := decodeTickets(raw); ok {
		return Listing{Kind: ListingOK, Tickets: tickets}
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		for _, key := range listKeys {
			if tickets, ok := decodeTickets(envelope[key]); ok {
				return Listing{Kind: ListingOK, Tickets: tickets}
			}
		}
	}
	return Listing{Kind: ListingMalformed, Raw: append(json.RawMessage(nil), raw...)}
}

func decodeTickets(raw json.RawMessage) ([]models.Ticket, bool) {
	raw = bytes.TrimLeft(raw, " \t\r\n")
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var tickets []models.Ticket
	if err := json.Unmarshal(raw, &tickets); err != nil {
		return nil, false
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	return tickets, true
}

// unwrapTicket decodes a single-ticket payload, accepting both {ticket: {...}} and a bare object.
func unwrapTicket(raw []byte) (*models.Ticket, error) {
	var wrapped struct {
		Ticket *models.Ticket `json:"ticket"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Ticket != nil {
		return wrapped.Ticket, nil
	}
	var t models.Ticket
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
