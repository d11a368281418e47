package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grindchain/core/events"
	"grindchain/core/types"
	"grindchain/observability"
	"grindchain/storage"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	authTokenEnv    = "GRIND_RPC_TOKEN"
)

// Server exposes the bounty and profile engines over JSON-RPC. Each mutating
// method runs inside one storage update, so every operation commits atomically
// or not at all.
type Server struct {
	db             storage.Database
	authToken      string
	nowFn          func() int64
	logger         *slog.Logger
	metrics        *observability.ModuleMetrics
	backingReserve *big.Int
}

// Options tunes server construction. Zero values fall back to sane defaults;
// the auth token defaults to the GRIND_RPC_TOKEN environment variable.
type Options struct {
	AuthToken      string
	Logger         *slog.Logger
	NowFunc        func() int64
	BackingReserve *big.Int
}

// NewServer constructs a server bound to the given state database.
func NewServer(db storage.Database, opts Options) *Server {
	token := strings.TrimSpace(opts.AuthToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv(authTokenEnv))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nowFn := opts.NowFunc
	if nowFn == nil {
		nowFn = func() int64 { return time.Now().Unix() }
	}
	return &Server{
		db:             db,
		authToken:      token,
		nowFn:          nowFn,
		logger:         logger,
		metrics:        observability.Metrics(),
		backingReserve: opts.BackingReserve,
	}
}

// Router returns the HTTP handler serving /rpc, /healthz and /metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/rpc", s.handle)
	r.Post("/", s.handle)
	return r
}

// Start serves the router on addr until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
	return http.ListenAndServe(addr, s.Router())
}

// RPCRequest is the JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

// RPCError is the JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RPCResponse is the JSON-RPC 2.0 response envelope.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type handlerFunc func(params []json.RawMessage) (interface{}, error)

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "parse_error", err.Error())
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "parse_error", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "invalid_request", "unsupported jsonrpc version")
		return
	}
	method := strings.TrimSpace(req.Method)
	handler, needsAuth, ok := s.route(method)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method_not_found", method)
		return
	}
	if needsAuth {
		if err := s.requireAuth(r); err != nil {
			s.metrics.ObserveRequest(method, "unauthorized", start)
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "unauthorized", err.Error())
			return
		}
	}
	result, err := handler(req.Params)
	if err != nil {
		code := errorCode(err)
		s.metrics.ObserveRequest(method, "error", start)
		s.metrics.ObserveError(method, strconv.Itoa(code))
		s.logger.Info("rpc request failed",
			slog.String("method", method),
			slog.Int("code", code),
			slog.Any("error", err),
		)
		writeError(w, httpStatusFor(code), req.ID, code, errorMessage(code), err.Error())
		return
	}
	s.metrics.ObserveRequest(method, "ok", start)
	writeResult(w, req.ID, result)
}

func (s *Server) route(method string) (handlerFunc, bool, bool) {
	switch method {
	case "bounty_create":
		return s.handleBountyCreate, true, true
	case "bounty_claim":
		return s.handleBountyClaim, true, true
	case "bounty_submitProof":
		return s.handleBountySubmitProof, true, true
	case "bounty_approve":
		return s.handleBountyApprove, true, true
	case "bounty_reject":
		return s.handleBountyReject, true, true
	case "bounty_finalize":
		return s.handleBountyFinalize, true, true
	case "bounty_cancel":
		return s.handleBountyCancel, true, true
	case "bounty_abandon":
		return s.handleBountyAbandon, true, true
	case "bounty_get":
		return s.handleBountyGet, false, true
	case "profile_init":
		return s.handleProfileInit, true, true
	case "profile_link":
		return s.handleProfileLink, true, true
	case "profile_get":
		return s.handleProfileGet, false, true
	case "agent_get":
		return s.handleAgentGet, false, true
	case "bank_fund":
		return s.handleBankFund, true, true
	default:
		return nil, false, false
	}
}

func (s *Server) requireAuth(r *http.Request) error {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return fmt.Errorf("missing bearer token")
	}
	presented := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(presented), []byte(s.authToken)) != 1 {
		return fmt.Errorf("invalid token")
	}
	return nil
}

func httpStatusFor(code int) int {
	switch code {
	case codeBountyNotFound:
		return http.StatusNotFound
	case codeBountyForbidden:
		return http.StatusForbidden
	case codeBountyConflict, codeBountyWrongState:
		return http.StatusConflict
	case codeServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeError(w http.ResponseWriter, status int, id json.RawMessage, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(RPCResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	})
}

// logEmitter forwards engine events to the structured log.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	if l.logger == nil || evt == nil {
		return
	}
	args := []any{slog.String("type", evt.EventType())}
	if carrier, ok := evt.(interface{ Event() *types.Event }); ok {
		if payload := carrier.Event(); payload != nil {
			for key, value := range payload.Attributes {
				args = append(args, slog.String(key, value))
			}
		}
	}
	l.logger.Info("event", args...)
}
