package mimicsqlwire

import "github.com/tuannm99/mimicsql/internal/plan"

// ExecuteRequest is a single SQL command request.
type ExecuteRequest struct {
	ID  uint64 `json:"id"`
	SQL string `json:"sql"`
}

// ExecuteResponse is the response for a request ID.
type ExecuteResponse struct {
	ID     uint64       `json:"id"`
	Result *plan.Result `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}
