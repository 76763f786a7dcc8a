package blockchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	dialEVMClient    = ethclient.Dial
	getClientChainID = func(client *ethclient.Client, ctx context.Context) (*big.Int, error) {
		return client.ChainID(ctx)
	}
)

// NativeTransferGas is the gas limit of a plain value transfer
const NativeTransferGas = 21000

// TxSigner signs transactions for one address. Satisfied by keyvault.Signer
// so raw ephemeral key material never reaches this package.
type TxSigner interface {
	Address() string
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// EVMClient provides EVM blockchain interaction
type EVMClient struct {
	client  *ethclient.Client
	chainID *big.Int
	rpcURL  string

	// Injectable for deterministic unit tests without network sockets.
	testBalanceAt   func(ctx context.Context, address string) (*big.Int, error)
	testGasPrice    func(ctx context.Context) (*big.Int, error)
	testNonceAt     func(ctx context.Context, address string) (uint64, error)
	testSendTx      func(ctx context.Context, tx *types.Transaction) error
}

// NewEVMClient creates a new EVM client
func NewEVMClient(rpcURL string) (*EVMClient, error) {
	client, err := dialEVMClient(rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := getClientChainID(client, context.Background())
	if err != nil {
		return nil, err
	}

	return &EVMClient{
		client:  client,
		chainID: chainID,
		rpcURL:  rpcURL,
	}, nil
}

// NewEVMClientWithStubs creates an EVM client backed by injected functions.
// This is intended for unit tests where RPC sockets are unavailable.
func NewEVMClientWithStubs(
	chainID *big.Int,
	balanceAt func(ctx context.Context, address string) (*big.Int, error),
	gasPrice func(ctx context.Context) (*big.Int, error),
	nonceAt func(ctx context.Context, address string) (uint64, error),
	sendTx func(ctx context.Context, tx *types.Transaction) error,
) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{
		chainID:       chainID,
		testBalanceAt: balanceAt,
		testGasPrice:  gasPrice,
		testNonceAt:   nonceAt,
		testSendTx:    sendTx,
	}
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// GetBalance gets the native token balance of an address
func (c *EVMClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if c.testBalanceAt != nil {
		return c.testBalanceAt(ctx, address)
	}
	addr := common.HexToAddress(address)
	return c.client.BalanceAt(ctx, addr, nil)
}

// SuggestGasPrice returns the current suggested gas price
func (c *EVMClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if c.testGasPrice != nil {
		return c.testGasPrice(ctx)
	}
	return c.client.SuggestGasPrice(ctx)
}

// SendNative signs and broadcasts a plain value transfer from the signer's
// address. Returns the transaction hash.
func (c *EVMClient) SendNative(ctx context.Context, signer TxSigner, to string, amountWei *big.Int) (string, error) {
	nonce, err := c.pendingNonceAt(ctx, signer.Address())
	if err != nil {
		return "", err
	}

	gasPrice, err := c.SuggestGasPrice(ctx)
	if err != nil {
		return "", err
	}

	tx := types.NewTransaction(nonce, common.HexToAddress(to), amountWei, NativeTransferGas, gasPrice, nil)
	signed, err := signer.SignTx(tx, c.chainID)
	if err != nil {
		return "", err
	}

	if err := c.sendTransaction(ctx, signed); err != nil {
		return "", err
	}

	return signed.Hash().Hex(), nil
}

func (c *EVMClient) pendingNonceAt(ctx context.Context, address string) (uint64, error) {
	if c.testNonceAt != nil {
		return c.testNonceAt(ctx, address)
	}
	return c.client.PendingNonceAt(ctx, common.HexToAddress(address))
}

func (c *EVMClient) sendTransaction(ctx context.Context, tx *types.Transaction) error {
	if c.testSendTx != nil {
		return c.testSendTx(ctx, tx)
	}
	return c.client.SendTransaction(ctx, tx)
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
