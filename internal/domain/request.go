package domain

// ContactRequest is a message sent by a user to a coach.
type ContactRequest struct {
	ID        string `json:"id"`
	CoachID   string `json:"coachId"`
	UserEmail string `json:"userEmail"`
	Message   string `json:"message"`
}

// RequestFields is the record posted to the document store under a coach id.
type RequestFields struct {
	UserEmail string `json:"userEmail"`
	Message   string `json:"message"`
}
