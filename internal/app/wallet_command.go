package app

import (
	"encoding/json"

	"github.com/spf13/cobra"

	clierr "github.com/ggonzalez94/onchain-agent/internal/errors"
)

func (s *runtimeState) newWalletCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "wallet",
		Short: "Print the agent wallet details",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.initSession()
			if err != nil {
				return err
			}
			return s.printWalletDetails(sess)
		},
	}
}

func (s *runtimeState) printWalletDetails(sess *session) error {
	network := sess.wallet.Network()
	details := struct {
		Address      string `json:"address"`
		NetworkID    string `json:"network_id"`
		ChainID      int64  `json:"chain_id"`
		NativeSymbol string `json:"native_symbol"`
		Testnet      bool   `json:"testnet"`
		SnapshotPath string `json:"snapshot_path"`
	}{
		Address:      sess.wallet.Address().Hex(),
		NetworkID:    network.ID,
		ChainID:      network.ChainID,
		NativeSymbol: network.NativeSymbol,
		Testnet:      network.Testnet,
		SnapshotPath: sess.store.Path(),
	}
	enc := json.NewEncoder(s.runner.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(details); err != nil {
		return clierr.Wrap(clierr.CodeFatal, "render wallet details", err)
	}
	return nil
}
