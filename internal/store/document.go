package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// IDField is the document field holding an entity's own ID.
const IDField = "id"

// Document is the untyped field map persisted for every entity.
// It only exists at the adapter boundary; callers get typed records back.
type Document map[string]any

// Clone returns a shallow copy that is safe to stamp.
func (d Document) Clone() Document {
	if d == nil {
		return Document{}
	}
	return maps.Clone(d)
}

// stampID writes id into the document's visible field set.
// Returns false when the same id is already stamped, so callers can skip the write.
func stampID(doc Document, id any) bool {
	if existing, ok := doc[IDField]; ok && fmt.Sprint(existing) == fmt.Sprint(id) {
		return false
	}
	doc[IDField] = id
	return true
}

// decodeDocument parses stored bytes, keeping numbers exact.
func decodeDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Key formats a numeric ID so that lexicographic key order equals numeric order.
func Key(id int64) string {
	return fmt.Sprintf("%020d", id)
}
