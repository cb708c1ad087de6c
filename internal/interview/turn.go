package interview

// TurnRequest is one submitted answer (or the empty start signal when
// IsFirstQuestion is set) for a given session.
type TurnRequest struct {
	SessionID       string `json:"sessionId"`
	JobTitle        string `json:"jobTitle"`
	JobDescription  string `json:"jobDescription"`
	UserAnswer      string `json:"userAnswer"`
	IsFirstQuestion bool   `json:"isFirstQuestion"`
}

// TurnResponse is the structured reply derived from the model's free-form
// text. Nil fields mean the reply did not contain that section; RawResponse
// always carries the unparsed text for diagnostics.
type TurnResponse struct {
	Feedback        *string `json:"feedback"`
	ImprovedAnswer  *string `json:"improvedAnswer"`
	NextQuestion    *string `json:"nextQuestion"`
	IsFirstQuestion bool    `json:"isFirstQuestion"`
	RawResponse     string  `json:"rawResponse"`
	SessionID       string  `json:"sessionId"`
}
