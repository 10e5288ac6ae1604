package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TurnRole string

const (
	TurnInterviewer TurnRole = "interviewer"
	TurnCandidate   TurnRole = "candidate"
)

// Turn is one utterance in a session's transcript. The ledger is append-only:
// turns are never edited or deleted, and Seq (a per-session monotonic counter)
// fixes the ordering regardless of timestamp resolution.
type Turn struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	Seq       int64              `bson:"seq" json:"seq"`
	Role      TurnRole           `bson:"role" json:"role"`
	Text      string             `bson:"text" json:"text"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
