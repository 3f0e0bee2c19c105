package model

import "time"

// LeadStatus represents the intake status of a lead record.
type LeadStatus string

const (
	StatusNewLead      LeadStatus = "New Lead"
	StatusAccepted     LeadStatus = "Accepted"
	StatusInReview     LeadStatus = "In Review"
	StatusDeclined     LeadStatus = "Declined"
	StatusNeedMoreInfo LeadStatus = "Need More Info"
	StatusSigned       LeadStatus = "Signed"
	StatusNoResponse   LeadStatus = "No Response"
)

// Lead represents an intake lead pulled from the record store.
type Lead struct {
	RecordID         string     `json:"record_id"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone,omitempty"`
	Email            string     `json:"email,omitempty"`
	CaptureDate      *time.Time `json:"capture_date,omitempty"`
	DaysSinceCapture *int       `json:"days_since_capture,omitempty"`
	Source           string     `json:"source,omitempty"`
	Summary          string     `json:"summary,omitempty"` // intake call summary with case details
	Sentiment        string     `json:"sentiment,omitempty"`
	Status           LeadStatus `json:"status"`
	CreatedTime      *time.Time `json:"created_time,omitempty"`

	AccidentDate     *time.Time `json:"accident_date,omitempty"`
	AccidentLocation string     `json:"accident_location,omitempty"`
	InjuryDesc       string     `json:"injury_description,omitempty"`
	MedicalTreatment string     `json:"medical_treatment,omitempty"`
	InsuranceCarrier string     `json:"insurance_carrier,omitempty"`
	LiabilityNotes   string     `json:"liability_notes,omitempty"`
}
