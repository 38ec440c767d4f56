package server

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/nativewrap/nativewrap/internal/token"
)

var (
	testRelayer = common.HexToAddress("0x000000000000000000000000000000000000beef")
	walletA     = "0x00000000000000000000000000000000000000a1"
	walletB     = "0x00000000000000000000000000000000000000b2"
	delegateC   = "0x00000000000000000000000000000000000000c3"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServerForTest(testRelayer)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) map[string]any {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestMetaEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	code, out := getJSON(t, ts.URL+"/token/meta")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, token.Name, out["name"])
	require.Equal(t, token.Symbol, out["symbol"])
	require.Equal(t, float64(token.Decimals), out["decimals"])
	require.Equal(t, "0", out["total_supply"])
}

func TestTokenBalanceAlwaysRefused(t *testing.T) {
	_, ts := newTestServer(t)

	// Even for a funded, registered wallet
	postJSON(t, ts.URL+"/faucet", map[string]string{"address": walletA, "amount": "50"})

	for _, addr := range []string{walletA, walletB, "0x0000000000000000000000000000000000000000"} {
		code, out := getJSON(t, ts.URL+"/token/balance/"+addr)
		require.Equal(t, http.StatusNotImplemented, code)
		require.Equal(t, false, out["success"])
		require.Contains(t, out["error"], "balanceOf is not supported")
	}
}

func TestFaucetAndNativeBalance(t *testing.T) {
	_, ts := newTestServer(t)

	out := postJSON(t, ts.URL+"/faucet", map[string]string{"address": walletA, "amount": "100"})
	require.Equal(t, true, out["success"])

	code, out := getJSON(t, ts.URL+"/balance/"+walletA)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "100", out["balance"])
}

func TestTransferFlow(t *testing.T) {
	_, ts := newTestServer(t)
	postJSON(t, ts.URL+"/faucet", map[string]string{"address": walletA, "amount": "10"})

	out := postJSON(t, ts.URL+"/token/transfer", map[string]string{
		"caller":    walletA,
		"recipient": walletB,
		"amount":    "4",
	})
	require.Equal(t, true, out["success"])
	require.NotEmpty(t, out["tx_id"])

	_, balA := getJSON(t, ts.URL+"/balance/"+walletA)
	_, balB := getJSON(t, ts.URL+"/balance/"+walletB)
	require.Equal(t, "6", balA["balance"])
	require.Equal(t, "4", balB["balance"])
}

func TestDelegatedTransferFlow(t *testing.T) {
	_, ts := newTestServer(t)
	postJSON(t, ts.URL+"/faucet", map[string]string{"address": walletA, "amount": "10"})

	out := postJSON(t, ts.URL+"/token/approve", map[string]string{
		"owner":   walletA,
		"spender": delegateC,
		"amount":  "2",
	})
	require.Equal(t, true, out["success"])

	_, allowance := getJSON(t, ts.URL+"/token/allowance/"+walletA+"/"+delegateC)
	require.Equal(t, "2", allowance["allowance"])

	out = postJSON(t, ts.URL+"/token/transferfrom", map[string]string{
		"caller":    delegateC,
		"source":    walletA,
		"recipient": walletB,
		"amount":    "2",
	})
	require.Equal(t, true, out["success"])

	_, balB := getJSON(t, ts.URL+"/balance/"+walletB)
	require.Equal(t, "2", balB["balance"])
	_, allowance = getJSON(t, ts.URL+"/token/allowance/"+walletA+"/"+delegateC)
	require.Equal(t, "0", allowance["allowance"])

	// Quota exhausted: the failure carries the allowance error and no state
	// change happens.
	out = postJSON(t, ts.URL+"/token/transferfrom", map[string]string{
		"caller":    delegateC,
		"source":    walletA,
		"recipient": walletB,
		"amount":    "1",
	})
	require.Equal(t, false, out["success"])
	require.Contains(t, out["error"], "insufficient allowance")

	_, balB = getJSON(t, ts.URL+"/balance/"+walletB)
	require.Equal(t, "2", balB["balance"])
}

func TestRelayerFlow(t *testing.T) {
	_, ts := newTestServer(t)
	postJSON(t, ts.URL+"/faucet", map[string]string{"address": walletA, "amount": "10"})

	// No approval at all; the configured relayer pulls anyway.
	out := postJSON(t, ts.URL+"/token/transferfrom", map[string]string{
		"caller":    testRelayer.Hex(),
		"source":    walletA,
		"recipient": walletB,
		"amount":    "3",
	})
	require.Equal(t, true, out["success"])

	_, balB := getJSON(t, ts.URL+"/balance/"+walletB)
	require.Equal(t, "3", balB["balance"])
}

func TestCallEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	postJSON(t, ts.URL+"/faucet", map[string]string{"address": walletA, "amount": "10"})

	calldata, err := token.ABI.Pack("transfer", common.HexToAddress(walletB), big.NewInt(5))
	require.NoError(t, err)

	out := postJSON(t, ts.URL+"/token/call", map[string]string{
		"caller": walletA,
		"data":   common.Bytes2Hex(calldata),
	})
	require.Equal(t, true, out["success"])

	_, balB := getJSON(t, ts.URL+"/balance/"+walletB)
	require.Equal(t, "5", balB["balance"])

	// balanceOf through the call surface is refused as well
	calldata, err = token.ABI.Pack("balanceOf", common.HexToAddress(walletA))
	require.NoError(t, err)
	out = postJSON(t, ts.URL+"/token/call", map[string]string{
		"caller": walletA,
		"data":   common.Bytes2Hex(calldata),
	})
	require.Equal(t, false, out["success"])
	require.Contains(t, out["error"], "balanceOf is not supported")
}

func TestInvalidAmountRejected(t *testing.T) {
	_, ts := newTestServer(t)

	data, _ := json.Marshal(map[string]string{
		"caller":    walletA,
		"recipient": walletB,
		"amount":    "not-a-number",
	})
	resp, err := http.Post(ts.URL+"/token/transfer", "application/json", bytes.NewBuffer(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnfundedTransferFails(t *testing.T) {
	_, ts := newTestServer(t)
	postJSON(t, ts.URL+"/account/register", map[string]string{"address": walletA})

	out := postJSON(t, ts.URL+"/token/transfer", map[string]string{
		"caller":    walletA,
		"recipient": walletB,
		"amount":    "1",
	})
	require.Equal(t, false, out["success"])
	require.Contains(t, out["error"], "insufficient funds")
}
