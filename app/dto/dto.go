package dto

// APIResponse is the envelope every endpoint returns, success or not.
// Data carries the payload on success; Error carries an ErrorDetail.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

// ErrorDetail pairs a stable machine-readable code with optional context,
// such as per-field validation messages.
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
