// Package daemon implements the Unix socket RPC surface: a JSON-RPC 2.0
// server, the matching client, and the lock file that enforces a single
// daemon per data directory.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	pdxerrors "github.com/pathdex/pathdex/internal/errors"
	"github.com/pathdex/pathdex/internal/query"
)

// RequestHandler handles incoming RPC requests.
type RequestHandler interface {
	HandleQuery(ctx context.Context, params QueryParams) (*query.Result, error)
	HandleSecretPath(ctx context.Context, params SecretPathParams) (string, error)
	GetStatus() StatusResult
}

// Server listens on a Unix socket and handles RPC requests.
type Server struct {
	socketPath string
	listener   net.Listener
	handler    RequestHandler
	started    time.Time

	mu       sync.Mutex
	shutdown bool
	wg       sync.WaitGroup
}

// NewServer creates a new server that listens on the given socket path.
func NewServer(socketPath string) *Server {
	return &Server{socketPath: socketPath}
}

// SetHandler sets the request handler.
func (s *Server) SetHandler(h RequestHandler) {
	s.handler = h
}

// ListenAndServe starts the server and blocks until the context is
// cancelled. The socket is created with owner-only permissions relaxed to
// allow any local user to connect; authentication happens per request via
// token secrets, not at the socket.
func (s *Server) ListenAndServe(ctx context.Context) error {
	// Clean up any stale socket
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}
	s.listener = listener
	s.started = time.Now()

	if err := os.Chmod(s.socketPath, 0o666); err != nil {
		slog.Warn("failed to relax socket permissions", slog.String("error", err.Error()))
	}

	defer func() {
		_ = listener.Close()
		_ = os.Remove(s.socketPath)
	}()

	slog.Info("server listening", slog.String("socket", s.socketPath))

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			shutdown := s.shutdown
			s.mu.Unlock()
			if shutdown {
				break
			}
			slog.Error("accept error", slog.String("error", err.Error()))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	// Wait for active connections to finish
	s.wg.Wait()

	return ctx.Err()
}

// handleConnection processes a single client connection.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		slog.Warn("failed to set connection deadline", slog.String("error", err.Error()))
	}

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var req Request
	if err := decoder.Decode(&req); err != nil {
		resp := NewErrorResponse("", ErrCodeParseError, "failed to parse request")
		_ = encoder.Encode(resp)
		return
	}

	resp := s.handleRequest(ctx, req)
	_ = encoder.Encode(resp)
}

// handleRequest dispatches a request to the appropriate handler.
func (s *Server) handleRequest(ctx context.Context, req Request) Response {
	switch req.Method {
	case MethodPing:
		return NewSuccessResponse(req.ID, PingResult{Pong: true})

	case MethodStatus:
		return NewSuccessResponse(req.ID, s.getStatus())

	case MethodQuery:
		return s.handleQuery(ctx, req)

	case MethodSecretPath:
		return s.handleSecretPath(ctx, req)

	default:
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

// handleQuery processes a query request.
func (s *Server) handleQuery(ctx context.Context, req Request) Response {
	if s.handler == nil {
		return NewErrorResponse(req.ID, ErrCodeInternalError, "no query handler configured")
	}

	var params QueryParams
	if resp, ok := decodeParams(req, &params); !ok {
		return resp
	}
	if err := params.Validate(); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	result, err := s.handler.HandleQuery(ctx, params)
	if err != nil {
		return errorResponse(req.ID, err)
	}
	return NewSuccessResponse(req.ID, result)
}

// handleSecretPath processes a secret_path request.
func (s *Server) handleSecretPath(ctx context.Context, req Request) Response {
	if s.handler == nil {
		return NewErrorResponse(req.ID, ErrCodeInternalError, "no query handler configured")
	}

	var params SecretPathParams
	if resp, ok := decodeParams(req, &params); !ok {
		return resp
	}
	if err := params.Validate(); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	path, err := s.handler.HandleSecretPath(ctx, params)
	if err != nil {
		return errorResponse(req.ID, err)
	}
	return NewSuccessResponse(req.ID, SecretPathResult{Path: path})
}

// decodeParams re-marshals req.Params into the typed params struct.
func decodeParams(req Request, out any) (Response, bool) {
	paramsData, err := json.Marshal(req.Params)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "failed to encode params"), false
	}
	if err := json.Unmarshal(paramsData, out); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "failed to decode params"), false
	}
	return Response{}, true
}

// errorResponse maps service errors onto protocol error codes. Auth
// failures stay opaque so a client cannot probe for users or tokens.
func errorResponse(id string, err error) Response {
	switch {
	case pdxerrors.IsAuthFailure(err):
		return NewErrorResponse(id, ErrCodeAuthFailed, "authentication failed")
	case pdxerrors.GetCode(err) == pdxerrors.ErrCodeInvalidArgument:
		return NewErrorResponse(id, ErrCodeInvalidParams, trimmedMessage(err))
	case pdxerrors.GetCode(err) == pdxerrors.ErrCodeTokenIO:
		return NewErrorResponse(id, ErrCodeTokenIO, trimmedMessage(err))
	default:
		return NewErrorResponse(id, ErrCodeQueryFailed, trimmedMessage(err))
	}
}

// trimmedMessage returns the service error message without wrapped causes,
// falling back to the full text for plain errors.
func trimmedMessage(err error) string {
	var perr *pdxerrors.PathdexError
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}

// getStatus returns the current server status.
func (s *Server) getStatus() StatusResult {
	status := StatusResult{
		Running: true,
		PID:     os.Getpid(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	}
	if s.handler != nil {
		hs := s.handler.GetStatus()
		status.Entries = hs.Entries
		status.IndexVersion = hs.IndexVersion
		status.WatcherType = hs.WatcherType
		status.Roots = hs.Roots
	}
	return status
}

// Close stops the server.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
