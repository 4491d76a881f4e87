// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package greetd

import (
	"encoding/json"
	"fmt"
)

// RequestType discriminates the request payloads understood by greetd.
// Serialized as the "type" field of the request object.
type RequestType string

const (
	// RequestCreateSession opens an authentication transaction for a
	// username. The daemon answers with either an auth message (a PAM
	// conversation round), success (no authentication required), or an
	// error.
	RequestCreateSession RequestType = "create_session"

	// RequestPostAuthMessageResponse answers the pending auth message.
	// The response field is null when the message required no answer
	// (informational and error messages are acknowledged this way).
	RequestPostAuthMessageResponse RequestType = "post_auth_message_response"

	// RequestStartSession asks the daemon to launch the session command
	// once the transaction has authenticated. The daemon replies with
	// success and launches the command when the greeter exits.
	RequestStartSession RequestType = "start_session"

	// RequestCancelSession aborts the current transaction. Always valid;
	// the daemon resets to its initial state.
	RequestCancelSession RequestType = "cancel_session"
)

// Request is a single message from the greeter to greetd.
//
// Exactly one request is in flight at any time: the protocol offers no
// pipelining, and greetd treats out-of-order requests as errors.
type Request struct {
	// Type selects the payload shape. The remaining fields are only
	// meaningful for the request types documented on each.
	Type RequestType `json:"type"`

	// Username is the login identifier (for create_session). This is
	// always the true value, never a display mask.
	Username string `json:"username,omitempty"`

	// Response is the answer to the pending auth message (for
	// post_auth_message_response). A nil pointer acknowledges a message
	// that takes no answer; an empty non-nil string is a valid empty
	// answer, so the distinction matters on the wire.
	Response *string `json:"response,omitempty"`

	// Cmd is the session command line (for start_session). tuigreet
	// always sends a single element: the resolved command string is
	// passed to the daemon verbatim and interpreted by the shell the
	// daemon spawns.
	Cmd []string `json:"cmd,omitempty"`

	// Env lists KEY=value environment entries for the session (for
	// start_session): XDG_SESSION_TYPE, XDG_CURRENT_DESKTOP and
	// friends, derived from the selected session's descriptor.
	Env []string `json:"env,omitempty"`
}

// CreateSession builds a create_session request for the given username.
func CreateSession(username string) Request {
	return Request{Type: RequestCreateSession, Username: username}
}

// PostAuthMessageResponse builds a post_auth_message_response request.
// Pass nil to acknowledge a message that takes no answer.
func PostAuthMessageResponse(response *string) Request {
	return Request{Type: RequestPostAuthMessageResponse, Response: response}
}

// StartSession builds a start_session request for the given command
// line and environment.
func StartSession(cmd []string, env []string) Request {
	return Request{Type: RequestStartSession, Cmd: cmd, Env: env}
}

// CancelSession builds a cancel_session request.
func CancelSession() Request {
	return Request{Type: RequestCancelSession}
}

// ResponseType discriminates the response payloads sent by greetd.
type ResponseType string

const (
	// ResponseSuccess reports that the last request completed. After
	// create_session or post_auth_message_response it means the
	// transaction is authenticated; after start_session it means the
	// session launch is queued.
	ResponseSuccess ResponseType = "success"

	// ResponseError reports a failed request. ErrorType distinguishes
	// authentication failures from protocol or daemon errors.
	ResponseError ResponseType = "error"

	// ResponseAuthMessage carries one round of the PAM conversation:
	// a prompt to answer or a message to display.
	ResponseAuthMessage ResponseType = "auth_message"
)

// AuthMessageType classifies an auth_message response.
type AuthMessageType string

const (
	// AuthVisible prompts for an answer echoed in clear text.
	AuthVisible AuthMessageType = "visible"
	// AuthSecret prompts for an answer that must not be echoed.
	AuthSecret AuthMessageType = "secret"
	// AuthInfo is an informational message with no answer.
	AuthInfo AuthMessageType = "info"
	// AuthError is an error message from the authentication stack,
	// displayed but not answered.
	AuthError AuthMessageType = "error"
)

// ErrorType classifies an error response.
type ErrorType string

const (
	// ErrAuth means authentication failed (wrong credentials). The
	// transaction is dead; the greeter may start a new one for the
	// same username.
	ErrAuth ErrorType = "auth_error"
	// ErrGeneral is any other daemon-side failure. The description may
	// echo request data, including secrets, and must not be shown.
	ErrGeneral ErrorType = "error"
)

// Response is a single message from greetd to the greeter, read in
// answer to exactly one request.
type Response struct {
	Type ResponseType `json:"type"`

	// AuthMessageType and AuthMessage are set for auth_message responses.
	AuthMessageType AuthMessageType `json:"auth_message_type,omitempty"`
	AuthMessage     string          `json:"auth_message,omitempty"`

	// ErrorType and Description are set for error responses.
	ErrorType   ErrorType `json:"error_type,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Validate checks that a decoded response carries a known type and the
// fields its type requires. greetd is trusted, but a malformed frame
// must fail the current round-trip rather than corrupt greeter state.
func (response Response) Validate() error {
	switch response.Type {
	case ResponseSuccess:
		return nil
	case ResponseError:
		if response.ErrorType != ErrAuth && response.ErrorType != ErrGeneral {
			return fmt.Errorf("greetd: unknown error_type %q", response.ErrorType)
		}
		return nil
	case ResponseAuthMessage:
		switch response.AuthMessageType {
		case AuthVisible, AuthSecret, AuthInfo, AuthError:
			return nil
		}
		return fmt.Errorf("greetd: unknown auth_message_type %q", response.AuthMessageType)
	}
	return fmt.Errorf("greetd: unknown response type %q", response.Type)
}

// MarshalJSON serializes the request. A plain struct marshal would drop
// a non-nil pointer to an empty answer (omitempty keys on the pointed-to
// value's presence, and "response":null would never be emitted), so the
// field set is built explicitly per request type.
func (request Request) MarshalJSON() ([]byte, error) {
	payload := map[string]any{"type": request.Type}

	switch request.Type {
	case RequestCreateSession:
		payload["username"] = request.Username
	case RequestPostAuthMessageResponse:
		// null and missing are both accepted by greetd for an
		// unanswered message; null is what the reference client sends.
		payload["response"] = request.Response
	case RequestStartSession:
		cmd := request.Cmd
		if cmd == nil {
			cmd = []string{}
		}
		env := request.Env
		if env == nil {
			env = []string{}
		}
		payload["cmd"] = cmd
		payload["env"] = env
	case RequestCancelSession:
	default:
		return nil, fmt.Errorf("greetd: unknown request type %q", request.Type)
	}

	return json.Marshal(payload)
}
