package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"
)

// rootFile tracks the last committed state root inside a storage directory.
const rootFile = "root.txt"

// State wraps geth's StateDB as the host environment: the authoritative
// native-balance ledger, the adapter's storage slots, the log journal, and
// the snapshot machinery that makes a failing call chain all-or-nothing.
type State struct {
	db      state.Database
	stateDB *state.StateDB
	dir     string // empty for in-memory state
}

// NewMemoryState creates a fresh in-memory host state (for testing and the
// daemon's fallback path).
func NewMemoryState() (*State, error) {
	memDB := rawdb.NewMemoryDatabase()
	trieDB := triedb.NewDatabase(memDB, nil)
	db := state.NewDatabase(trieDB, nil)

	stateDB, err := state.New(types.EmptyRootHash, db)
	if err != nil {
		return nil, err
	}

	return &State{db: db, stateDB: stateDB}, nil
}

// NewPersistentState opens (or creates) a leveldb-backed host state under
// dir, resuming from the root recorded by the last Commit.
func NewPersistentState(dir string) (*State, error) {
	ldb, err := leveldb.New(dir, 128, 1024, "", false)
	if err != nil {
		return nil, err
	}

	rdb := rawdb.NewDatabase(ldb)
	tdb := triedb.NewDatabase(rdb, nil)
	sdb := state.NewDatabase(tdb, nil)

	root := types.EmptyRootHash
	if data, err := os.ReadFile(filepath.Join(dir, rootFile)); err == nil {
		rootStr := strings.TrimSpace(string(data))
		if len(rootStr) != 66 || (rootStr[:2] != "0x" && rootStr[:2] != "0X") {
			return nil, fmt.Errorf("invalid state root format: %q", rootStr)
		}
		root = common.HexToHash(rootStr)
	}

	stateDB, err := state.New(root, sdb)
	if err != nil {
		return nil, err
	}

	return &State{db: sdb, stateDB: stateDB, dir: dir}, nil
}

// Commit flushes the current state, records the new root, and reopens the
// StateDB at it so cached tries aren't reused after commit.
func (s *State) Commit(blockNum uint64) (common.Hash, error) {
	root, err := s.stateDB.Commit(blockNum, false, false)
	if err != nil {
		return common.Hash{}, err
	}

	newStateDB, err := state.New(root, s.stateDB.Database())
	if err != nil {
		return common.Hash{}, err
	}
	s.stateDB = newStateDB

	if s.dir != "" {
		if err := os.WriteFile(filepath.Join(s.dir, rootFile), []byte(root.Hex()), 0o644); err != nil {
			return common.Hash{}, fmt.Errorf("failed to record state root: %w", err)
		}
	}
	return root, nil
}

// Root returns the current state root without committing.
func (s *State) Root() common.Hash {
	return s.stateDB.IntermediateRoot(false)
}

// GetBalance returns an account's native balance.
func (s *State) GetBalance(addr common.Address) *uint256.Int {
	return s.stateDB.GetBalance(addr)
}

// AddBalance credits native currency to an account.
func (s *State) AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) {
	s.stateDB.AddBalance(addr, amount, reason)
}

// SubBalance debits native currency from an account.
func (s *State) SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) {
	s.stateDB.SubBalance(addr, amount, reason)
}

// Credit adds balance with no attributed cause (faucet, test setup).
func (s *State) Credit(addr common.Address, amount *uint256.Int) {
	s.stateDB.AddBalance(addr, amount, tracing.BalanceChangeUnspecified)
}

// GetState reads a storage slot.
func (s *State) GetState(addr common.Address, slot common.Hash) common.Hash {
	return s.stateDB.GetState(addr, slot)
}

// SetState writes a storage slot.
func (s *State) SetState(addr common.Address, slot common.Hash, value common.Hash) {
	s.stateDB.SetState(addr, slot, value)
}

// AddLog appends a log to the journal. Logs are discarded with the rest of a
// reverted snapshot.
func (s *State) AddLog(l *types.Log) {
	s.stateDB.AddLog(l)
}

// Logs returns every log recorded since the last commit.
func (s *State) Logs() []*types.Log {
	return s.stateDB.Logs()
}

// Snapshot marks a rollback point.
func (s *State) Snapshot() int {
	return s.stateDB.Snapshot()
}

// RevertToSnapshot discards every mutation made since the snapshot was taken,
// logs included.
func (s *State) RevertToSnapshot(snapshot int) {
	s.stateDB.RevertToSnapshot(snapshot)
}
