package service

// Kind classifies a failed Result so the transport can pick a status code.
type Kind int

const (
	KindOK Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindFailure
)

// Result is what write operations hand back to callers: either success with
// the id of the touched record, or one human-readable error message.
type Result struct {
	Success bool   `json:"success,omitempty"`
	OrderID string `json:"orderId,omitempty"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    Kind   `json:"-"`
}

func failure(kind Kind, msg string) Result {
	return Result{Error: msg, Kind: kind}
}
