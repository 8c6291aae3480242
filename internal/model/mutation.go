package model

// MutationResult echoes the outcome of a single store write back to the
// client, in the shape the web client already reads (insertedId,
// modifiedCount, deletedCount).
type MutationResult struct {
	Acknowledged  bool    `json:"acknowledged"`
	InsertedID    *string `json:"insertedId,omitempty"`
	MatchedCount  *int64  `json:"matchedCount,omitempty"`
	ModifiedCount *int64  `json:"modifiedCount,omitempty"`
	DeletedCount  *int64  `json:"deletedCount,omitempty"`
}

// Inserted builds the result of a successful insert.
func Inserted(id string) MutationResult {
	return MutationResult{Acknowledged: true, InsertedID: &id}
}

// Updated builds the result of an update of one document.
func Updated() MutationResult {
	n := int64(1)
	return MutationResult{Acknowledged: true, MatchedCount: &n, ModifiedCount: &n}
}

// Deleted builds the result of a delete of one document.
func Deleted() MutationResult {
	n := int64(1)
	return MutationResult{Acknowledged: true, DeletedCount: &n}
}
