package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Show token name, symbol, decimals and total supply",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := getJSON("/token/meta")
		if err != nil {
			return err
		}
		return printResult(out)
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Show an account's native balance (the host's view)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := getJSON("/balance/" + args[0])
		if err != nil {
			return err
		}
		return printResult(out)
	},
}

var allowanceCmd = &cobra.Command{
	Use:   "allowance <owner> <spender>",
	Short: "Show the remaining quota for (owner, spender)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := getJSON(fmt.Sprintf("/token/allowance/%s/%s", args[0], args[1]))
		if err != nil {
			return err
		}
		return printResult(out)
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <owner> <spender> <amount>",
	Short: "Set the quota for (owner, spender); 0 revokes",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := postJSON("/token/approve", map[string]string{
			"owner":   args[0],
			"spender": args[1],
			"amount":  args[2],
		})
		if err != nil {
			return err
		}
		return printResult(out)
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <caller> <recipient> <amount>",
	Short: "Move native currency from the caller through the token interface",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := postJSON("/token/transfer", map[string]string{
			"caller":    args[0],
			"recipient": args[1],
			"amount":    args[2],
		})
		if err != nil {
			return err
		}
		return printResult(out)
	},
}

var transferFromCmd = &cobra.Command{
	Use:   "transferfrom <caller> <source> <recipient> <amount>",
	Short: "Delegated transfer, debiting the (source, caller) quota",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := postJSON("/token/transferfrom", map[string]string{
			"caller":    args[0],
			"source":    args[1],
			"recipient": args[2],
			"amount":    args[3],
		})
		if err != nil {
			return err
		}
		return printResult(out)
	},
}

var faucetCmd = &cobra.Command{
	Use:   "faucet <address> <amount>",
	Short: "Credit native currency and register the address as a wallet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := postJSON("/faucet", map[string]string{
			"address": args[0],
			"amount":  args[1],
		})
		if err != nil {
			return err
		}
		return printResult(out)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <address>",
	Short: "Register a wallet account so it can act as a transfer source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := postJSON("/account/register", map[string]string{
			"address": args[0],
		})
		if err != nil {
			return err
		}
		return printResult(out)
	},
}
