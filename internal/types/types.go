package types

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
	Stage     string `json:"stage,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
