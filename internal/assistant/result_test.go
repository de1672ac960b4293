package assistant

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResult_FlattensPayload(t *testing.T) {
	res := succeeded("Task created.", map[string]any{"task_id": "t1", "count": 2})

	data, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"message":"Task created.","task_id":"t1","count":2}`, string(data))
}

func TestResult_FailureShape(t *testing.T) {
	res := failed("Could not create the task.", errors.New("disk full"))

	data, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t, `{"success":false,"message":"Could not create the task.","error":"disk full","code":"operation_failed"}`, string(data))
}

func TestResult_ReservedKeysWinOverPayload(t *testing.T) {
	res := Result{Success: true, Message: "ok", Payload: map[string]any{"success": false, "message": "spoof"}}

	m := res.Map()
	require.Equal(t, true, m["success"])
	require.Equal(t, "ok", m["message"])
}

func TestResult_UnmarshalSplitsPayload(t *testing.T) {
	var res Result
	err := json.Unmarshal([]byte(`{"success":false,"message":"bad","code":"validation_failed","validation_errors":["a","b"],"hint":"x"}`), &res)
	require.NoError(t, err)

	require.Equal(t, Result{
		Message:          "bad",
		Code:             CodeValidationFailed,
		ValidationErrors: []string{"a", "b"},
		Payload:          map[string]any{"hint": "x"},
	}, res)
}
