package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/nativewrap/nativewrap/config"
	"github.com/nativewrap/nativewrap/internal/host"
	"github.com/nativewrap/nativewrap/internal/token"
)

// DefaultCheckpointInterval is used when the config carries no commit
// interval of its own.
const DefaultCheckpointInterval = 3 * time.Second

// AdapterAddress is the well-known account the adapter lives at. Address
// derivation is a deployment concern outside this system; the daemon pins a
// constant.
var AdapterAddress = common.HexToAddress("0x00000000000000000000000000000000000Aa770")

// Server handles HTTP requests for a token-adapter node.
type Server struct {
	state    *host.State
	tok      *token.Token
	accounts *token.Registry
	router   *mux.Router
	httpSrv  *http.Server

	checkpointInterval time.Duration
	mu                 sync.Mutex // serializes token ops and commits
	height             uint64

	done      chan struct{}
	closeOnce sync.Once
}

// NewServer builds a server from config, preferring persistent state and
// falling back to memory when the storage directory is unusable.
func NewServer(cfg *config.Config) *Server {
	var st *host.State
	var err error
	if cfg.StorageDir != "" {
		st, err = host.NewPersistentState(cfg.StorageDir)
		if err != nil {
			log.Printf("WARNING: Failed to open persistent state in %s: %v. Falling back to in-memory state.", cfg.StorageDir, err)
		}
	}
	if st == nil {
		st, err = host.NewMemoryState()
		if err != nil {
			log.Fatalf("Failed to create in-memory state: %v", err)
		}
	}

	interval := DefaultCheckpointInterval
	if cfg.CheckpointMs > 0 {
		interval = time.Duration(cfg.CheckpointMs) * time.Millisecond
	}

	s := newServer(st, cfg.RelayerAddress())
	s.checkpointInterval = interval
	s.done = make(chan struct{})
	go s.checkpointLoop()
	return s
}

// NewServerForTest creates a server on in-memory state without the
// checkpoint loop.
func NewServerForTest(relayer common.Address) *Server {
	st, err := host.NewMemoryState()
	if err != nil {
		log.Fatalf("Failed to create in-memory state (test mode): %v", err)
	}
	return newServer(st, relayer)
}

func newServer(st *host.State, relayer common.Address) *Server {
	accounts := token.NewRegistry()
	s := &Server{
		state:    st,
		tok:      token.New(AdapterAddress, st, accounts, relayer),
		accounts: accounts,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Router returns the HTTP router for testing.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Token exposes the adapter for testing.
func (s *Server) Token() *token.Token {
	return s.tok
}

// State exposes the host state for testing.
func (s *Server) State() *host.State {
	return s.state
}

// checkpointLoop commits host state periodically so a restart resumes from
// the recorded root.
func (s *Server) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			log.Printf("nativewrap: checkpoint loop stopping")
			return
		case <-ticker.C:
			s.mu.Lock()
			s.height++
			root, err := s.state.Commit(s.height)
			s.mu.Unlock()
			if err != nil {
				log.Printf("nativewrap: checkpoint %d failed: %v", s.height, err)
				continue
			}
			log.Printf("nativewrap: checkpoint %d root=%s", s.height, root.Hex())
		}
	}
}

// Close stops the checkpoint loop and the HTTP listener. Idempotent.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		if s.done != nil {
			close(s.done)
		}
	})
}

func (s *Server) setupRoutes() {
	// Token surface
	s.router.HandleFunc("/token/meta", s.handleMeta).Methods("GET")
	s.router.HandleFunc("/token/allowance/{owner}/{spender}", s.handleAllowance).Methods("GET")
	s.router.HandleFunc("/token/balance/{address}", s.handleTokenBalance).Methods("GET")
	s.router.HandleFunc("/token/approve", s.handleApprove).Methods("POST")
	s.router.HandleFunc("/token/transfer", s.handleTransfer).Methods("POST")
	s.router.HandleFunc("/token/transferfrom", s.handleTransferFrom).Methods("POST")
	s.router.HandleFunc("/token/call", s.handleCall).Methods("POST")

	// Host surface
	s.router.HandleFunc("/balance/{address}", s.handleNativeBalance).Methods("GET")
	s.router.HandleFunc("/faucet", s.handleFaucet).Methods("POST")
	s.router.HandleFunc("/account/register", s.handleRegister).Methods("POST")

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")
}

// Serve starts the HTTP listener and blocks until Shutdown.
func (s *Server) Serve(addr string) error {
	log.Printf("nativewrap: listening on %s", addr)
	s.httpSrv = &http.Server{Addr: addr, Handler: s.router}
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains the HTTP listener and stops the checkpoint loop.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Close()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// parseAmount decodes a base-10 amount into the native 256-bit width.
func parseAmount(str string) (*uint256.Int, error) {
	v, ok := new(big.Int).SetString(str, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", str)
	}
	amount, overflow := uint256.FromBig(v)
	if overflow || v.Sign() < 0 {
		return nil, fmt.Errorf("amount %q out of range", str)
	}
	return amount, nil
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{
		"token_address": s.tok.Address().Hex(),
		"relayer":       s.tok.Relayer().Hex(),
		"name":          token.Name,
		"symbol":        token.Symbol,
	})
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{
		"name":         token.Name,
		"symbol":       token.Symbol,
		"decimals":     token.Decimals,
		"total_supply": s.tok.TotalSupply().Dec(),
	})
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	owner := common.HexToAddress(vars["owner"])
	spender := common.HexToAddress(vars["spender"])

	s.mu.Lock()
	quota := s.tok.Allowance(owner, spender)
	s.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]string{
		"owner":     owner.Hex(),
		"spender":   spender.Hex(),
		"allowance": quota.Dec(),
	})
}

// handleTokenBalance refuses unconditionally. The host's balance ledger is
// the only balance view this system offers.
func (s *Server) handleTokenBalance(w http.ResponseWriter, r *http.Request) {
	_, err := s.tok.BalanceOf(common.HexToAddress(mux.Vars(r)["address"]))
	w.WriteHeader(http.StatusNotImplemented)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}

type ApproveRequest struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	owner := common.HexToAddress(req.Owner)
	spender := common.HexToAddress(req.Spender)

	s.mu.Lock()
	s.tok.Approve(owner, spender, amount)
	s.mu.Unlock()

	log.Printf("nativewrap: approve %s -> %s quota=%s", owner.Hex(), spender.Hex(), amount.Dec())
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

type TransferRequest struct {
	Caller    string `json:"caller"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	caller := common.HexToAddress(req.Caller)
	recipient := common.HexToAddress(req.Recipient)
	txID := uuid.New().String()

	s.mu.Lock()
	err = s.tok.Transfer(caller, recipient, amount)
	s.mu.Unlock()

	if err != nil {
		log.Printf("nativewrap: transfer %s failed: %v", txID, err)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"tx_id":   txID,
			"error":   err.Error(),
		})
		return
	}

	log.Printf("nativewrap: transfer %s: %s -> %s amount=%s", txID, caller.Hex(), recipient.Hex(), amount.Dec())
	json.NewEncoder(w).Encode(map[string]any{"success": true, "tx_id": txID})
}

type TransferFromRequest struct {
	Caller    string `json:"caller"`
	Source    string `json:"source"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

func (s *Server) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	var req TransferFromRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	caller := common.HexToAddress(req.Caller)
	source := common.HexToAddress(req.Source)
	recipient := common.HexToAddress(req.Recipient)
	txID := uuid.New().String()

	s.mu.Lock()
	err = s.tok.TransferFrom(caller, source, recipient, amount)
	s.mu.Unlock()

	if err != nil {
		log.Printf("nativewrap: transferFrom %s failed: %v", txID, err)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"tx_id":   txID,
			"error":   err.Error(),
		})
		return
	}

	log.Printf("nativewrap: transferFrom %s: %s pulls %s -> %s amount=%s",
		txID, caller.Hex(), source.Hex(), recipient.Hex(), amount.Dec())
	json.NewEncoder(w).Encode(map[string]any{"success": true, "tx_id": txID})
}

type CallRequest struct {
	Caller string `json:"caller"`
	Data   string `json:"data"` // hex encoded calldata
}

// handleCall routes raw ABI calldata to the adapter, mirroring how an EVM
// host would dispatch a contract call.
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	caller := common.HexToAddress(req.Caller)
	data := common.FromHex(req.Data)

	s.mu.Lock()
	ret, err := s.tok.Call(caller, data)
	s.mu.Unlock()

	if err != nil {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"return":  common.Bytes2Hex(ret),
	})
}

func (s *Server) handleNativeBalance(w http.ResponseWriter, r *http.Request) {
	addr := common.HexToAddress(mux.Vars(r)["address"])

	s.mu.Lock()
	balance := s.state.GetBalance(addr).Dec()
	s.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]string{
		"address": addr.Hex(),
		"balance": balance,
	})
}

type FaucetRequest struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// handleFaucet credits native currency and registers a wallet account so the
// address can act as a transfer source right away.
func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	var req FaucetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	addr := common.HexToAddress(req.Address)

	s.mu.Lock()
	s.state.Credit(addr, amount)
	if !s.accounts.Registered(addr) {
		s.accounts.Register(addr, token.NewBasicAccount(addr, s.state))
	}
	s.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

type RegisterRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	addr := common.HexToAddress(req.Address)

	s.mu.Lock()
	s.accounts.Register(addr, token.NewBasicAccount(addr, s.state))
	s.mu.Unlock()

	log.Printf("nativewrap: registered wallet account %s", addr.Hex())
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}
