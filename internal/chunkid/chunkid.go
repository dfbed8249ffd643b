// Package chunkid builds deterministic chunk ids and content hashes.
//
// Ids follow "<ticketId>:a<attachmentIndex>:p<chunkIndex>:u:<scopeId>" so a scope's chunks can be
// found by parsing ids when a store cannot filter deletes by metadata.
package chunkid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
)

// idPattern matches the first attachment/chunk marker, so ticket ids may contain ':' and scope ids may
// contain ":u:" without shifting the split.
var idPattern = regexp.MustCompile(`^(.*?):a(\d+):p(\d+):u:(.*)$`)

// Parts are the fields encoded in a chunk id.
type Parts struct {
	TicketID        string
	AttachmentIndex int
	ChunkIndex      int
	ScopeID         string
}

// Parse splits id into its parts. ok is false when id does not follow the convention.
func Parse(id string) (Parts, bool) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return Parts{}, false
	}
	ai, err := strconv.Atoi(m[2])
	if err != nil {
		return Parts{}, false
	}
	ci, err := strconv.Atoi(m[3])
	if err != nil {
		return Parts{}, false
	}
	return Parts{TicketID: m[1], AttachmentIndex: ai, ChunkIndex: ci, ScopeID: m[4]}, true
}

// New returns the id for chunk chunkIndex of attachment attachmentIndex on ticketID, owned by scopeID.
// Same inputs always yield the same id, so re-indexing overwrites instead of duplicating.
func New(ticketID string, attachmentIndex, chunkIndex int, scopeID string) string {
	return fmt.Sprintf("%s:a%d:p%d%s", ticketID, attachmentIndex, chunkIndex, ScopeMarker(scopeID))
}

// ScopeMarker returns the id suffix shared by every chunk of scopeID.
func ScopeMarker(scopeID string) string {
	return ":u:" + scopeID
}

// InScope reports whether id belongs to scopeID.
func InScope(id, scopeID string) bool {
	p, ok := Parse(id)
	return ok && p.ScopeID == scopeID
}

// InTicketScope reports whether id belongs to ticketID within scopeID.
func InTicketScope(id, ticketID, scopeID string) bool {
	p, ok := Parse(id)
	return ok && p.TicketID == ticketID && p.ScopeID == scopeID
}

// ContentHash returns a hex sha256 of text, used to skip identical content reached via different URLs.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
