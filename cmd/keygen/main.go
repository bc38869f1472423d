// cmd/keygen/main.go
//
// 発行用の Solana authority keypair を扱う小さなツール。
//   - new:     ed25519 keypair を生成し、アドレスと base58 秘密鍵を表示（任意で Solana CLI 形式の JSON を保存）
//   - inspect: SOLANA_TOKEN_CREATION_KEY / SOLANA_FEE_COLLECTION_KEY を検証し公開鍵だけを表示
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	solanainfra "github.com/AlbionAI/mememint-24-sub000/internal/infra/solana"
)

func main() {
	root := &cobra.Command{
		Use:   "keygen",
		Short: "Generate and inspect issuance authority keypairs",
	}
	root.AddCommand(newCommand(), inspectCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a fresh authority keypair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			acct := types.NewAccount()

			if outFile != "" {
				secret := make([]int, len(acct.PrivateKey))
				for i, b := range acct.PrivateKey {
					secret[i] = int(b)
				}
				data, err := json.Marshal(secret)
				if err != nil {
					return fmt.Errorf("marshal keypair json: %w", err)
				}
				// 上書き注意
				if err := os.WriteFile(outFile, data, 0o600); err != nil {
					return fmt.Errorf("write %s: %w", outFile, err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "============================================")
			fmt.Fprintln(out, "Authority keypair generated")
			fmt.Fprintln(out, "============================================")
			fmt.Fprintf(out, "Address:\n  %s\n\n", acct.PublicKey.ToBase58())
			fmt.Fprintf(out, "Secret key (base58, set as SOLANA_*_KEY):\n  %s\n\n", base58.Encode(acct.PrivateKey))
			if outFile != "" {
				fmt.Fprintf(out, "Keypair file (Solana CLI JSON):\n  %s\n\n", outFile)
			}
			fmt.Fprintln(out, "IMPORTANT: 秘密鍵は Git にコミットせず、Secret Manager に登録してください。")
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "also write a Solana CLI JSON keypair file")
	return cmd
}

func inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Validate the signing keys in the environment and print their addresses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds := solanainfra.SignerCredentials{
				TokenCreationKey: os.Getenv(solanainfra.KeyTokenCreation),
				FeeCollectionKey: os.Getenv(solanainfra.KeyFeeCollection),
			}
			a, err := solanainfra.ParseAuthorities(creds)
			if err != nil {
				log.Printf("[keygen] %v", err)
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", solanainfra.KeyTokenCreation, a.TokenCreation.PublicKey.ToBase58())
			fmt.Fprintf(out, "%s: %s\n", solanainfra.KeyFeeCollection, a.FeeCollection.PublicKey.ToBase58())
			return nil
		},
	}
}
