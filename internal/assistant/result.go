package assistant

import (
	"encoding/json"
	"errors"
)

// ErrToolNotFound reports a tool name outside the catalog.
var ErrToolNotFound = errors.New("tool not found")

// Code classifies a failed result.
type Code string

const (
	CodeToolNotFound     Code = "tool_not_found"
	CodeValidationFailed Code = "validation_failed"
	CodeOperationFailed  Code = "operation_failed"
)

// Result is the uniform outcome of a tool call. Payload keys are flattened
// next to success and message when encoded.
type Result struct {
	Success          bool
	Message          string
	Payload          map[string]any
	Error            string
	Code             Code
	ValidationErrors []string
}

var reservedKeys = []string{"success", "message", "error", "code", "validation_errors"}

func succeeded(message string, payload map[string]any) Result {
	return Result{Success: true, Message: message, Payload: payload}
}

func failed(message string, err error) Result {
	return Result{Message: message, Error: err.Error(), Code: CodeOperationFailed}
}

// MarshalJSON flattens the payload into the top-level object.
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Payload)+len(reservedKeys))
	for k, v := range r.Payload {
		out[k] = v
	}
	out["success"] = r.Success
	out["message"] = r.Message
	if r.Error != "" {
		out["error"] = r.Error
	}
	if r.Code != "" {
		out["code"] = r.Code
	}
	if len(r.ValidationErrors) > 0 {
		out["validation_errors"] = r.ValidationErrors
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the reserved keys back out of the payload.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var res Result
	fields := map[string]any{
		"success":           &res.Success,
		"message":           &res.Message,
		"error":             &res.Error,
		"code":              &res.Code,
		"validation_errors": &res.ValidationErrors,
	}
	for key, dst := range fields {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return err
			}
			delete(raw, key)
		}
	}
	if len(raw) > 0 {
		res.Payload = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			res.Payload[k] = val
		}
	}
	*r = res
	return nil
}

// Map returns the encoded form as a generic map, as fed back to the model.
func (r Result) Map() map[string]any {
	data, err := r.MarshalJSON()
	if err != nil {
		return map[string]any{"success": false, "error": err.Error()}
	}
	var out map[string]any
	_ = json.Unmarshal(data, &out)
	return out
}
