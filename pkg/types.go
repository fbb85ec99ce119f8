package pkg

// Turn is a single message in the referring clinician's conversation with the
// assistant. The caller resends the full transcript on every chat call; the
// server never stores it.
type Turn struct {
	Sender string `json:"sender"` // "user" or "assistant"
	Text   string `json:"text"`
}

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// ExtractedData holds the structured fields the model derived from the
// conversation. Pointer fields distinguish "not mentioned yet" from a value
// the model explicitly produced.
type ExtractedData struct {
	AgeGroup     *string `json:"ageGroup"` // "Adult" or "Child"
	Symptoms     *string `json:"symptoms"`
	Urgency      *string `json:"urgency"` // "low", "medium" or "high"
	Specialty    *string `json:"specialty"`
	Subspecialty *string `json:"subspecialty"`
	CanClassify  bool    `json:"canClassify"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning,omitempty"`
}

// Classification is the final specialty assignment for a case. After
// validation Specialty is always a taxonomy key and Subspecialty, when
// non-nil, is either a member of that specialty's allowed set or (under the
// permissive policy) the model's own wording.
type Classification struct {
	Specialty         string  `json:"specialty"`
	Subspecialty      *string `json:"subspecialty"`
	Reasoning         string  `json:"reasoning"`
	Confidence        float64 `json:"confidence"`
	UrgencyAssessment string  `json:"urgency_assessment,omitempty"`
	Source            string  `json:"source"`
}

// SourceModel is the provenance tag stamped on every validated
// classification.
const SourceModel = "model"

// NeedsMoreInfo reports how far the extraction is from the configured
// classification threshold when a chat turn is not yet classifiable.
type NeedsMoreInfo struct {
	Confidence float64 `json:"confidence"`
	Threshold  float64 `json:"threshold"`
}

// ChatResult is the outcome of one chat turn: the assistant's reply plus
// either a finished classification or a needs-more-info marker.
type ChatResult struct {
	Response       string          `json:"response"`
	Source         string          `json:"source"`
	CanClassify    bool            `json:"canClassify"`
	ExtractedData  ExtractedData   `json:"extractedData"`
	Classification *Classification `json:"classification,omitempty"`
	NeedsMoreInfo  *NeedsMoreInfo  `json:"needsMoreInfo,omitempty"`
}

// Request is a finalized referral submission. Empty optional fields are
// omitted from JSON and stored as NULL, never as empty strings.
type Request struct {
	ID             string `json:"id"`
	DoctorName     string `json:"doctorName,omitempty"`
	Hospital       string `json:"hospital,omitempty"`
	Location       string `json:"location,omitempty"`
	Email          string `json:"email,omitempty"`
	AgeGroup       string `json:"ageGroup,omitempty"`
	Symptoms       string `json:"symptoms,omitempty"`
	Urgency        string `json:"urgency,omitempty"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
	Specialty      string `json:"specialty,omitempty"`
	Subspecialty   string `json:"subspecialty,omitempty"`
	Reasoning      string `json:"reasoning,omitempty"`
	Status         string `json:"status,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"` // ISO-8601, UTC
}
