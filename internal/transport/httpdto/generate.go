package httpdto

// GenerateRequest is the body of POST /generate. Prompt is a pointer so an
// absent field and a JSON null are both detectable.
type GenerateRequest struct {
	Prompt *string `json:"prompt"`
}

// GenerateResponse is the success body of POST /generate.
type GenerateResponse struct {
	Response string `json:"response"`
}

// GenerateError is the failure body of POST /generate.
type GenerateError struct {
	Error string `json:"error"`
}
