// attestctl is a thin CLI over the attestation service: register schemas,
// issue, verify, list and revoke attestations. All results are printed as a
// uniform JSON envelope so callers can script against it.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/attestkit/attestations-framework/attest"
	"github.com/attestkit/attestations-framework/chain/evm"
	"github.com/attestkit/attestations-framework/config"
	"github.com/attestkit/attestations-framework/internal/pointer"
	"github.com/attestkit/attestations-framework/pkg/logger"
)

// envelope is the uniform result shape printed for every command.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "attestctl",
		Short:         "Issue, query and revoke on-chain attestations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "attest.yaml", "path to the configuration file")

	cmd.AddCommand(
		newInitConfigCmd(&configPath),
		newCreateSchemaCmd(&configPath),
		newAttestCmd(&configPath),
		newVerifyCmd(&configPath),
		newListCmd(&configPath),
		newRevokeCmd(&configPath),
	)

	return cmd
}

func newInitConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write an example configuration file to the --config path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(*configPath); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", *configPath)
			}

			example := config.Config{
				Network: "sepolia",
				RPCs: []evm.RPC{
					{Name: "primary", HTTPURL: "https://rpc.example.com"},
				},
				SignerKey: "<hex encoded private key>",
			}
			out, err := yaml.Marshal(example)
			if err != nil {
				return err
			}
			if err := os.WriteFile(*configPath, out, 0o600); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", *configPath)

			return nil
		},
	}
}

func newCreateSchemaCmd(configPath *string) *cobra.Command {
	var req attest.CreateSchemaRequest

	cmd := &cobra.Command{
		Use:   "create-schema",
		Short: "Register a schema definition on the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, *configPath, req)
		},
	}

	cmd.Flags().StringVar(&req.Definition, "definition", "", `comma-joined "type name" field list, e.g. "string name,uint256 age"`)
	cmd.Flags().StringVar(&req.Resolver, "resolver", "", "optional resolver contract address")
	cmd.Flags().BoolVar(&req.Revocable, "revocable", true, "whether attestations under this schema can be revoked")

	return cmd
}

func newAttestCmd(configPath *string) *cobra.Command {
	var (
		req       attest.IssueAttestationRequest
		revocable bool
	)

	cmd := &cobra.Command{
		Use:   "attest",
		Short: "Issue an attestation against a registered schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Revocable = pointer.To(revocable)

			return runRequest(cmd, *configPath, req)
		},
	}

	cmd.Flags().StringVar(&req.SchemaUID, "schema", "", "schema identifier")
	cmd.Flags().StringVar(&req.Recipient, "recipient", "", "recipient address")
	cmd.Flags().StringVar(&req.Payload, "payload", "0x", "schema-encoded payload as hex")
	cmd.Flags().Uint64Var(&req.ExpirationTime, "expiration", 0, "expiration as Unix seconds, 0 for never")
	cmd.Flags().BoolVar(&revocable, "revocable", true, "whether the attestation can be revoked")
	cmd.Flags().StringVar(&req.RefUID, "ref", "", "optional referenced attestation identifier")

	return cmd
}

func newVerifyCmd(configPath *string) *cobra.Command {
	var req attest.VerifyAttestationRequest

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify an attestation and report its validity state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, *configPath, req)
		},
	}

	cmd.Flags().StringVar(&req.UID, "uid", "", "attestation identifier")

	return cmd
}

func newListCmd(configPath *string) *cobra.Command {
	var req attest.ListAttestationsRequest

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List attestations from the index, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, *configPath, req)
		},
	}

	cmd.Flags().StringVar(&req.Recipient, "recipient", "", "filter by recipient address")
	cmd.Flags().StringVar(&req.Attester, "attester", "", "filter by attester address")
	cmd.Flags().StringVar(&req.SchemaUID, "schema", "", "filter by schema identifier")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "maximum records to return (default 10)")

	return cmd
}

func newRevokeCmd(configPath *string) *cobra.Command {
	var req attest.RevokeAttestationRequest

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an attestation by identifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, *configPath, req)
		},
	}

	cmd.Flags().StringVar(&req.UID, "uid", "", "attestation identifier")

	return cmd
}

// runRequest builds the service from configuration, executes the request
// and prints the uniform envelope. Failures become {success: false} with
// the error message; the process exit code stays zero so the envelope is
// the single source of truth for scripting.
func runRequest(cmd *cobra.Command, configPath string, req attest.Request) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return printEnvelope(cmd, envelope{Message: fmt.Sprintf("failed to load config: %v", err)})
	}
	if err := cfg.Validate(); err != nil {
		return printEnvelope(cmd, envelope{Message: fmt.Sprintf("invalid config: %v", err)})
	}

	network, err := cfg.ResolveNetwork()
	if err != nil {
		return printEnvelope(cmd, envelope{Message: err.Error()})
	}

	lggr, err := logger.New()
	if err != nil {
		return err
	}
	defer func() { _ = lggr.Sync() }()

	service, err := attest.NewProvider(attest.ProviderConfig{
		Network:    network,
		RPCs:       cfg.RPCs,
		SignerGen:  cfg.SignerGenerator(),
		IndexerURL: cfg.IndexerURL,
		Logger:     lggr,
	}).Initialize(cmd.Context())
	if err != nil {
		return printEnvelope(cmd, envelope{Message: err.Error()})
	}

	data, err := service.Handle(cmd.Context(), req)
	if err != nil {
		return printEnvelope(cmd, envelope{Message: err.Error()})
	}

	message := "ok"
	if data == nil {
		message = "not found"
	}

	return printEnvelope(cmd, envelope{Success: true, Message: message, Data: data})
}

func printEnvelope(cmd *cobra.Command, env envelope) error {
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(out))

	return nil
}
