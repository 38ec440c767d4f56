package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "nwctl",
	Short: "Client for the nativewrap token-adapter daemon",
	Long: `nwctl talks to a running nativewrapd instance: fund wallets, set
allowances, and move native currency through the token interface.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	if env := os.Getenv("NATIVEWRAP_URL"); env != "" {
		serverURL = env
	} else {
		serverURL = "http://localhost:8547"
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", serverURL, "daemon base URL")

	rootCmd.AddCommand(
		metaCmd,
		balanceCmd,
		allowanceCmd,
		approveCmd,
		transferCmd,
		transferFromCmd,
		faucetCmd,
		registerCmd,
	)
}

// getJSON performs a GET and decodes the JSON body.
func getJSON(path string) (map[string]any, error) {
	resp, err := http.Get(serverURL + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeResponse(resp)
}

// postJSON performs a POST with a JSON body and decodes the JSON reply.
func postJSON(path string, body any) (map[string]any, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeResponse(resp)
}

func decodeResponse(resp *http.Response) (map[string]any, error) {
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("server returned %d", resp.StatusCode)
		}
		return nil, err
	}
	return out, nil
}

// printResult renders a response map as indented JSON.
func printResult(out map[string]any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
