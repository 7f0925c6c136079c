package linodehttp

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// FieldError is one entry of the API's errors array.
type FieldError struct {
	Field  string
	Reason string
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Reason
	}
	return f.Field + ": " + f.Reason
}

// APIError is a non-2xx response.
type APIError struct {
	Status int
	Errors []FieldError
	Body   []byte
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Body: body}
	if gjson.ValidBytes(body) {
		gjson.GetBytes(body, "errors").ForEach(func(_, v gjson.Result) bool {
			e.Errors = append(e.Errors, FieldError{
				Field:  v.Get("field").String(),
				Reason: v.Get("reason").String(),
			})
			return true
		})
	}
	return e
}

// Error renders one line per API error, or the status and raw body when
// the response carried none.
func (e *APIError) Error() string {
	head := fmt.Sprintf("Request failed: %d %s", e.Status, http.StatusText(e.Status))
	if len(e.Errors) == 0 {
		if b := strings.TrimSpace(string(e.Body)); b != "" {
			return head + "\n" + b
		}
		return head
	}
	lines := make([]string, 0, len(e.Errors)+1)
	lines = append(lines, head)
	for _, fe := range e.Errors {
		lines = append(lines, fe.String())
	}
	return strings.Join(lines, "\n")
}
