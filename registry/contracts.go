package registry

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/attestkit/attestations-framework/chain/evm"
)

// Hand-rolled bindings for the subset of the EAS and SchemaRegistry
// contract surfaces this module uses. Kept in the shape abigen would
// generate so they can be swapped for generated wrappers later.

const schemaRegistryABIJSON = `[
	{"inputs":[{"internalType":"string","name":"schema","type":"string"},{"internalType":"address","name":"resolver","type":"address"},{"internalType":"bool","name":"revocable","type":"bool"}],"name":"register","outputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"bytes32","name":"uid","type":"bytes32"}],"name":"getSchema","outputs":[{"components":[{"internalType":"bytes32","name":"uid","type":"bytes32"},{"internalType":"address","name":"resolver","type":"address"},{"internalType":"bool","name":"revocable","type":"bool"},{"internalType":"string","name":"schema","type":"string"}],"internalType":"struct SchemaRecord","name":"","type":"tuple"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"bytes32","name":"uid","type":"bytes32"},{"indexed":false,"internalType":"address","name":"registerer","type":"address"}],"name":"Registered","type":"event"}
]`

const easABIJSON = `[
	{"inputs":[{"components":[{"internalType":"bytes32","name":"schema","type":"bytes32"},{"components":[{"internalType":"address","name":"recipient","type":"address"},{"internalType":"uint64","name":"expirationTime","type":"uint64"},{"internalType":"bool","name":"revocable","type":"bool"},{"internalType":"bytes32","name":"refUID","type":"bytes32"},{"internalType":"bytes","name":"data","type":"bytes"},{"internalType":"uint256","name":"value","type":"uint256"}],"internalType":"struct AttestationRequestData","name":"data","type":"tuple"}],"internalType":"struct AttestationRequest","name":"request","type":"tuple"}],"name":"attest","outputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"stateMutability":"payable","type":"function"},
	{"inputs":[{"components":[{"internalType":"bytes32","name":"schema","type":"bytes32"},{"components":[{"internalType":"bytes32","name":"uid","type":"bytes32"},{"internalType":"uint256","name":"value","type":"uint256"}],"internalType":"struct RevocationRequestData","name":"data","type":"tuple"}],"internalType":"struct RevocationRequest","name":"request","type":"tuple"}],"name":"revoke","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"internalType":"bytes32","name":"uid","type":"bytes32"}],"name":"getAttestation","outputs":[{"components":[{"internalType":"bytes32","name":"uid","type":"bytes32"},{"internalType":"bytes32","name":"schema","type":"bytes32"},{"internalType":"uint64","name":"time","type":"uint64"},{"internalType":"uint64","name":"expirationTime","type":"uint64"},{"internalType":"uint64","name":"revocationTime","type":"uint64"},{"internalType":"bytes32","name":"refUID","type":"bytes32"},{"internalType":"address","name":"recipient","type":"address"},{"internalType":"address","name":"attester","type":"address"},{"internalType":"bool","name":"revocable","type":"bool"},{"internalType":"bytes","name":"data","type":"bytes"}],"internalType":"struct Attestation","name":"","type":"tuple"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"recipient","type":"address"},{"indexed":true,"internalType":"address","name":"attester","type":"address"},{"indexed":false,"internalType":"bytes32","name":"uid","type":"bytes32"},{"indexed":true,"internalType":"bytes32","name":"schemaUID","type":"bytes32"}],"name":"Attested","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"recipient","type":"address"},{"indexed":true,"internalType":"address","name":"attester","type":"address"},{"indexed":false,"internalType":"bytes32","name":"uid","type":"bytes32"},{"indexed":true,"internalType":"bytes32","name":"schemaUID","type":"bytes32"}],"name":"Revoked","type":"event"}
]`

// attestationRequestData mirrors the AttestationRequestData tuple.
type attestationRequestData struct {
	Recipient      common.Address
	ExpirationTime uint64
	Revocable      bool
	RefUID         [32]byte
	Data           []byte
	Value          *big.Int
}

// attestationRequest mirrors the AttestationRequest tuple.
type attestationRequest struct {
	Schema [32]byte
	Data   attestationRequestData
}

// revocationRequestData mirrors the RevocationRequestData tuple.
type revocationRequestData struct {
	Uid   [32]byte
	Value *big.Int
}

// revocationRequest mirrors the RevocationRequest tuple.
type revocationRequest struct {
	Schema [32]byte
	Data   revocationRequestData
}

// easAttestation mirrors the Attestation tuple returned by getAttestation.
type easAttestation struct {
	Uid            [32]byte
	Schema         [32]byte
	Time           uint64
	ExpirationTime uint64
	RevocationTime uint64
	RefUID         [32]byte
	Recipient      common.Address
	Attester       common.Address
	Revocable      bool
	Data           []byte
}

// schemaRecord mirrors the SchemaRecord tuple returned by getSchema.
type schemaRecord struct {
	Uid       [32]byte
	Resolver  common.Address
	Revocable bool
	Schema    string
}

// easAttested mirrors the Attested event.
type easAttested struct {
	Recipient common.Address
	Attester  common.Address
	Uid       [32]byte
	SchemaUID [32]byte
}

type easContract struct {
	abi      abi.ABI
	contract *bind.BoundContract
}

func newEASContract(address common.Address, backend evm.OnchainClient) (*easContract, error) {
	parsed, err := abi.JSON(strings.NewReader(easABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse EAS ABI: %w", err)
	}

	return &easContract{
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

func (c *easContract) Attest(opts *bind.TransactOpts, request attestationRequest) (*types.Transaction, error) {
	return c.contract.Transact(opts, "attest", request)
}

func (c *easContract) Revoke(opts *bind.TransactOpts, request revocationRequest) (*types.Transaction, error) {
	return c.contract.Transact(opts, "revoke", request)
}

func (c *easContract) GetAttestation(opts *bind.CallOpts, uid [32]byte) (easAttestation, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, "getAttestation", uid); err != nil {
		return easAttestation{}, err
	}

	return *abi.ConvertType(out[0], new(easAttestation)).(*easAttestation), nil
}

// ParseAttested unpacks an Attested event from a receipt log. Returns an
// error for logs that are not Attested events.
func (c *easContract) ParseAttested(log types.Log) (*easAttested, error) {
	event := new(easAttested)
	if err := c.contract.UnpackLog(event, "Attested", log); err != nil {
		return nil, err
	}

	return event, nil
}

// AttestedTopic returns the topic hash identifying Attested event logs.
func (c *easContract) AttestedTopic() common.Hash {
	return c.abi.Events["Attested"].ID
}

type schemaRegistryContract struct {
	abi      abi.ABI
	contract *bind.BoundContract
}

func newSchemaRegistryContract(address common.Address, backend evm.OnchainClient) (*schemaRegistryContract, error) {
	parsed, err := abi.JSON(strings.NewReader(schemaRegistryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SchemaRegistry ABI: %w", err)
	}

	return &schemaRegistryContract{
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

func (c *schemaRegistryContract) Register(opts *bind.TransactOpts, schema string, resolver common.Address, revocable bool) (*types.Transaction, error) {
	return c.contract.Transact(opts, "register", schema, resolver, revocable)
}

func (c *schemaRegistryContract) GetSchema(opts *bind.CallOpts, uid [32]byte) (schemaRecord, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, "getSchema", uid); err != nil {
		return schemaRecord{}, err
	}

	return *abi.ConvertType(out[0], new(schemaRecord)).(*schemaRecord), nil
}

// RegisteredTopic returns the topic hash identifying Registered event logs.
// The schema UID is the first indexed topic of the event.
func (c *schemaRegistryContract) RegisteredTopic() common.Hash {
	return c.abi.Events["Registered"].ID
}
