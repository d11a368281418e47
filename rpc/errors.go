package rpc

import (
	"errors"

	"grindchain/native/bounty"
)

// errInvalidParams marks request decoding failures before any engine call.
var errInvalidParams = errors.New("invalid params")

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000

	codeBountyInvalidInput = -32021
	codeBountyNotFound     = -32022
	codeBountyForbidden    = -32023
	codeBountyWrongState   = -32024
	codeBountyWindow       = -32026
	codeBountyCapacity     = -32027
	codeBountyConflict     = -32028
)

// errorCode maps a domain error onto its JSON-RPC error code via the bounty
// error taxonomy.
func errorCode(err error) int {
	if errors.Is(err, errInvalidParams) {
		return codeInvalidParams
	}
	switch bounty.Classify(err) {
	case bounty.KindInvalidInput:
		return codeBountyInvalidInput
	case bounty.KindNotFound:
		return codeBountyNotFound
	case bounty.KindUnauthorized:
		return codeBountyForbidden
	case bounty.KindWrongState:
		return codeBountyWrongState
	case bounty.KindWindowViolation:
		return codeBountyWindow
	case bounty.KindCapacityExceeded:
		return codeBountyCapacity
	case bounty.KindAlreadyDone:
		return codeBountyConflict
	default:
		return codeServerError
	}
}

// errorMessage is the short machine-readable label paired with each code.
func errorMessage(code int) string {
	switch code {
	case codeBountyInvalidInput:
		return "invalid_input"
	case codeBountyNotFound:
		return "not_found"
	case codeBountyForbidden:
		return "forbidden"
	case codeBountyWrongState:
		return "wrong_state"
	case codeBountyWindow:
		return "window_violation"
	case codeBountyCapacity:
		return "capacity_exceeded"
	case codeBountyConflict:
		return "already_done"
	case codeUnauthorized:
		return "unauthorized"
	case codeInvalidParams:
		return "invalid_params"
	default:
		return "server_error"
	}
}
