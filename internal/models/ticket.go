// Package models defines the tickets, chunks, requests and results that flow through the RAG pipeline.
package models

import (
	"encoding/json"
	"strings"
)

// Attachment is a file attached to a ticket, referenced only by URL.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// UnmarshalJSON accepts either an attachment object or a bare URL string.
func (a *Attachment) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err == nil {
		a.URL = url
		a.Filename = ""
		return nil
	}
	type plain Attachment
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Attachment(p)
	return nil
}

// Ticket is the subset of a helpdesk ticket the indexer needs.
type Ticket struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	CreatedAt   string       `json:"createdAt,omitempty"`
	UpdatedAt   string       `json:"updatedAt,omitempty"`
	Attachments []Attachment `json:"attachments"`
}

// UnmarshalJSON accepts both "_id" and "id" for the ticket identifier.
func (t *Ticket) UnmarshalJSON(data []byte) error {
	type plain Ticket
	var p struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Ticket(p.plain)
	if t.ID == "" {
		t.ID = p.AltID
	}
	return nil
}

// Excerpt returns the description cut to at most n bytes on a rune boundary.
func (t *Ticket) Excerpt(n int) string {
	d := strings.TrimSpace(t.Description)
	if n <= 0 || len(d) <= n {
		return d
	}
	cut := n
	for cut > 0 && !isRuneStart(d[cut]) {
		cut--
	}
	return d[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
