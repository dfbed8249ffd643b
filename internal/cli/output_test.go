package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/ticketrag/internal/models"
)

func sampleResponse() *models.QueryResponse {
	answer := "Restart the printer [1]."
	return &models.QueryResponse{
		Query:        "printer",
		TopK:         5,
		TicketsCount: 2,
		QueryTime:    42,
		Results: []*models.QueryResult{{
			ID:   "t1:a0:p0:u:u1",
			Text: "The printer is jammed.",
			Metadata: models.Metadata{
				models.MetaTicketID:    "t1",
				models.MetaTicketTitle: "Printer broken",
				models.MetaFilename:    "notes.txt",
			},
			Score: 0.1234,
		}},
		Answer: &answer,
	}
}

func TestWriteQueryResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteQueryResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteQueryResults(json): %v", err)
	}
	var decoded models.QueryResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "printer" || decoded.QueryTime != 42 || len(decoded.Results) != 1 {
		t.Errorf("decoded: %+v", decoded)
	}
	if decoded.Results[0].ID != "t1:a0:p0:u:u1" {
		t.Errorf("result id: got %q", decoded.Results[0].ID)
	}
}

func TestWriteQueryResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteQueryResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatalf("WriteQueryResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{
		"Found 1 results", "42ms", "2 tickets", "Restart the printer [1].",
		"Distance: 0.1234", "Ticket: t1", "Title: Printer broken", "File: notes.txt", "The printer is jammed.",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteQueryResults_textNoAnswer(t *testing.T) {
	resp := &models.QueryResponse{Query: "x", Results: []*models.QueryResult{}}
	var buf bytes.Buffer
	if err := WriteQueryResults(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Answer") {
		t.Errorf("unexpected answer section:\n%s", buf.String())
	}
}

func TestWriteIndexResult(t *testing.T) {
	deleted := 3
	resp := &models.IndexResponse{
		Message:        "Reindexed",
		TicketID:       "t1",
		TicketsCount:   1,
		ChunksIndexed:  4,
		IDs:            []string{},
		DeletedVectors: &deleted,
	}
	var buf bytes.Buffer
	if err := WriteIndexResult(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Reindexed: 4 chunks from 1 tickets", "ticket:          t1", "deleted_vectors: 3"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteStatus(t *testing.T) {
	n := 7
	s := &Status{
		Backend:      "sqlite",
		Collection:   "tickets",
		TotalVectors: 12,
		UserVectors:  &n,
		Config:       map[string]interface{}{"chunk_size": 800, "strategy": "fixed"},
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, s, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"backend:            sqlite", "total_vectors:      12", "user_vectors:       7", "chunk_size:", "800", "fixed"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
