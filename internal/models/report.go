package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Metric is one scored dimension of an assessment. Value is in [0,100];
// Color is the display color the frontend charts with.
type Metric struct {
	Name  string  `bson:"name" json:"name"`
	Value float64 `bson:"value" json:"value"`
	Color string  `bson:"color" json:"color"`
}

// QADetail is one question/answer pair with the analyst's free-text verdict.
type QADetail struct {
	Question   string `bson:"question" json:"question"`
	Answer     string `bson:"answer" json:"answer"`
	Assessment string `bson:"assessment" json:"assessment"`
}

// Assessment groups the nine scored metrics an analysis pass produces.
type Assessment struct {
	Technical     []Metric `bson:"technical_metrics" json:"technical_metrics"`
	Communication []Metric `bson:"communication_metrics" json:"communication_metrics"`
	Personality   []Metric `bson:"personality_metrics" json:"personality_metrics"`
}

// Report is the immutable scored artifact written exactly once per completed
// session. Role and JobDescription are denormalized from the template so the
// report renders without rejoining it.
type Report struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	UserID    string             `bson:"user_id" json:"user_id"`

	Role           string `bson:"role,omitempty" json:"role,omitempty"`
	JobDescription string `bson:"job_description,omitempty" json:"job_description,omitempty"`

	OverallScore float64 `bson:"overall_score" json:"overall_score"`

	Technical     []Metric `bson:"technical_metrics" json:"technical_metrics"`
	Communication []Metric `bson:"communication_metrics" json:"communication_metrics"`
	Personality   []Metric `bson:"personality_metrics" json:"personality_metrics"`

	QADetails []QADetail `bson:"qa_details" json:"qa_details"`

	Date time.Time `bson:"date" json:"date"`
}

// Display colors per metric group.
const (
	ColorTechnical     = "#3b82f6"
	ColorCommunication = "#10b981"
	ColorPersonality   = "#8b5cf6"
)

// DefaultAssessment is the single fallback metric set substituted whenever the
// analysis collaborator fails or returns unusable output. It is the one
// source of truth for placeholder scores; its nine values average to 85.22.
func DefaultAssessment() Assessment {
	return Assessment{
		Technical: []Metric{
			{Name: "Technical Knowledge", Value: 80, Color: ColorTechnical},
			{Name: "Problem Solving", Value: 85, Color: ColorTechnical},
			{Name: "Code Quality", Value: 90, Color: ColorTechnical},
		},
		Communication: []Metric{
			{Name: "Clarity of Expression", Value: 88, Color: ColorCommunication},
			{Name: "Articulation", Value: 92, Color: ColorCommunication},
			{Name: "Active Listening", Value: 75, Color: ColorCommunication},
		},
		Personality: []Metric{
			{Name: "Confidence", Value: 82, Color: ColorPersonality},
			{Name: "Adaptability", Value: 90, Color: ColorPersonality},
			{Name: "Cultural Fit", Value: 85, Color: ColorPersonality},
		},
	}
}
