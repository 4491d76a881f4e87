// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package greeter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/apognu/tuigreet/lib/greetd"
	"github.com/apognu/tuigreet/lib/session"
)

// requestQueueSize bounds the outgoing request queue. The conversation
// is strictly one-at-a-time, so the queue only ever holds the couple
// of requests a single dispatch can enqueue (cancel follow-ups,
// auto-acknowledgements).
const requestQueueSize = 10

// Ipc is the queue-fronted protocol client. Producers enqueue requests
// with Send; the single consumer loop dequeues one request, performs
// exactly one round-trip on the connection, and dispatches the
// response into state mutations.
//
// At most one request is outstanding by construction: the consumer
// never dequeues the next request until the current round-trip has
// been dispatched.
type Ipc struct {
	queue  chan greetd.Request
	conn   *greetd.Conn
	logger *slog.Logger
}

// NewIpc creates a protocol client over the given connection.
func NewIpc(conn *greetd.Conn, logger *slog.Logger) *Ipc {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ipc{
		queue:  make(chan greetd.Request, requestQueueSize),
		conn:   conn,
		logger: logger,
	}
}

// Send enqueues a request and marks the greeter as working. The
// caller holds the greeter's write lock; the enqueue itself never
// touches the network.
func (ipc *Ipc) Send(g *Greeter, request greetd.Request) {
	g.Working = true
	select {
	case ipc.queue <- request:
	default:
		// The queue only fills if the consumer loop died; drop and
		// log rather than deadlock the keyboard path.
		ipc.logger.Error("request queue full, dropping request", "type", string(request.Type))
	}
}

// Cancel writes a best-effort cancel_session without waiting for the
// response. The write serializes on the connection with any in-flight
// round-trip, so a daemon that stopped responding mid-request delays
// it too. The caller is about to reset, which re-dials the connection
// and discards the unread reply.
func (ipc *Ipc) Cancel() {
	if err := ipc.conn.Send(greetd.CancelSession()); err != nil {
		ipc.logger.Warn("cancel_session failed", "error", err)
	}
}

// Handle processes one request: dequeue, round-trip, dispatch. It
// blocks until a request is available or the context is cancelled.
// The state lock is never held across the round-trip, only while
// dispatching the response.
func (ipc *Ipc) Handle(ctx context.Context, g *Greeter) error {
	var request greetd.Request
	select {
	case <-ctx.Done():
		return ctx.Err()
	case request = <-ipc.queue:
	}

	response, err := ipc.conn.RoundTrip(request)

	g.Lock()
	defer g.Unlock()

	g.Working = false
	if err != nil {
		// Transport or codec failure: the transaction may be wedged,
		// but crashing the login screen helps nobody. Surface nothing
		// and keep consuming.
		return fmt.Errorf("request %s: %w", string(request.Type), err)
	}

	ipc.dispatch(g, response)
	return nil
}

// Run is the consumer loop, re-entering Handle until the context is
// cancelled or the greeter reaches a terminal state. wake is called
// after every dispatched response so the UI re-renders.
func (ipc *Ipc) Run(ctx context.Context, g *Greeter, wake func()) {
	for {
		err := ipc.Handle(ctx, g)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			ipc.logger.Error("greetd exchange failed", "error", err)
		}

		g.RLock()
		done := g.exit != nil
		g.RUnlock()

		if wake != nil {
			wake()
		}
		if done {
			return
		}
	}
}

// dispatch applies one daemon response to the state. The caller holds
// the write lock.
func (ipc *Ipc) dispatch(g *Greeter, response greetd.Response) {
	switch response.Type {
	case greetd.ResponseAuthMessage:
		ipc.dispatchAuthMessage(g, response)

	case greetd.ResponseSuccess:
		if g.Done {
			// The session launch is acknowledged; the greeter's job
			// is over.
			g.persistRemembered()
			g.Exit(StatusSuccess)
			return
		}
		ipc.startSession(g)

	case greetd.ResponseError:
		ipc.Cancel()
		switch response.ErrorType {
		case greetd.ErrAuth:
			g.logger.Info("authentication failed")
			g.SoftReset()
			g.Message = MessageAuthFailed
			// Re-open a transaction for the same username so the
			// user can retry immediately.
			ipc.Send(g, greetd.CreateSession(g.Username.Value))
		default:
			// The description may embed typed secrets; log it to the
			// out-of-band sink only.
			g.logger.Error("daemon error", "description", response.Description)
			g.HardReset()
			g.Message = MessageError
		}
	}
}

// dispatchAuthMessage handles one round of the PAM conversation.
func (ipc *Ipc) dispatchAuthMessage(g *Greeter, response greetd.Response) {
	switch response.AuthMessageType {
	case greetd.AuthSecret, greetd.AuthVisible:
		g.Mode = ModePassword
		g.AskingForSecret = response.AuthMessageType == greetd.AuthSecret
		g.setPrompt(response.AuthMessage)
		g.SetBuffer("")

	case greetd.AuthError:
		// Shown verbatim: PAM modules use this for user-directed
		// notices (expired passwords, denied accounts). The daemon
		// decides whether the conversation continues; acknowledge to
		// keep it moving.
		g.Message = response.AuthMessage
		ipc.Send(g, greetd.PostAuthMessageResponse(nil))

	case greetd.AuthInfo:
		text := strings.TrimRight(response.AuthMessage, " \n")
		if g.Message == "" {
			g.Message = text + "\n"
		} else {
			g.Message += text + "\n"
		}
		if !g.Mode.isModal() {
			g.PreviousMode = g.Mode
		}
		g.Mode = ModeAction
		ipc.Send(g, greetd.PostAuthMessageResponse(nil))
	}
}

// startSession resolves the session selection and asks the daemon to
// launch it. An empty resolution cancels the authenticated transaction
// instead of handing greetd an unlaunchable session.
func (ipc *Ipc) startSession(g *Greeter) {
	command, env := session.Resolve(g.SessionSource, g.Sessions, g.Wrappers)
	env = append(env, g.Env...)
	if command == "" {
		ipc.Cancel()
		g.SoftReset()
		g.Message = MessageNoSession
		return
	}

	g.logger.Info("starting session", "command", command)
	g.Done = true
	g.Mode = ModeProcessing
	ipc.Send(g, greetd.StartSession([]string{command}, env))
}

// setPrompt stores the daemon's question, padded with a trailing space
// so the typed answer does not run into it.
func (g *Greeter) setPrompt(prompt string) {
	if prompt != "" && !strings.HasSuffix(prompt, " ") {
		prompt += " "
	}
	g.Prompt = prompt
}
