package dto

import "time"

type CreateNoteRequest struct {
	Text string `json:"text" validate:"required"`
}

// InsertedVectors mirrors the index mutation result returned on note creation.
type InsertedVectors struct {
	Count int      `json:"count"`
	Ids   []string `json:"ids"`
}

type CreateNoteResponse struct {
	Id       uint             `json:"id"`
	Text     string           `json:"text"`
	Inserted *InsertedVectors `json:"inserted"`
}

type NoteResponse struct {
	Id        uint      `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// PublishVectorCleanupMessage is queued when a note row is gone but removing
// its vector failed.
type PublishVectorCleanupMessage struct {
	NoteId    uint     `json:"note_id"`
	VectorIds []string `json:"vector_ids"`
	Attempt   int      `json:"attempt"`
}

type ReconcileReport struct {
	OrphanVectorsDeleted int `json:"orphan_vectors_deleted"`
	MissingVectorsFilled int `json:"missing_vectors_filled"`
	Failures             int `json:"failures"`
}
