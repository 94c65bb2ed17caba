package algorand

import (
	"bookbyblock-backend/logger"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/algorand/go-algorand-sdk/client/algod"
	"github.com/algorand/go-algorand-sdk/crypto"
	"github.com/algorand/go-algorand-sdk/mnemonic"
	"github.com/algorand/go-algorand-sdk/transaction"
)

// Account is an Algorand account held by the platform or an event issuer.
type Account struct {
	AccountAddress     string `json:"account_address"`
	PrivateKey         string `json:"-"`
	SecurityPassphrase string `json:"-"`
}

// Algo carries the on-chain side of a ticket: one single-unit frozen asset
// per ticket, created under the event issuer account and destroyed on burn.
// The authoritative exists/used state lives in the SQL store; the chain
// asset mirrors it.
type Algo interface {
	GenerateAccount() (*Account, error)
	CreateTicketAsset(ctx context.Context, issuer *Account, assetName, unitName string) (uint64, error)
	DestroyTicketAsset(ctx context.Context, issuer *Account, assetID uint64) error
}

type algo struct {
	platform   *Account
	apiAddress string
	apiKey     string
	minFee     uint64
}

func New(platform *Account, apiAddress, apiKey string, minFee uint64) Algo {
	return &algo{
		platform:   platform,
		apiAddress: apiAddress,
		apiKey:     apiKey,
		minFee:     minFee,
	}
}

func (a *algo) GenerateAccount() (*Account, error) {
	account := crypto.GenerateAccount()
	paraphrase, err := mnemonic.FromPrivateKey(account.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("generateAccount: error generating account: %w", err)
	}

	return &Account{
		AccountAddress:     account.Address.String(),
		PrivateKey:         string(account.PrivateKey),
		SecurityPassphrase: paraphrase,
	}, nil
}

func (a *algo) CreateTicketAsset(ctx context.Context, issuer *Account, assetName, unitName string) (uint64, error) {
	algodClient, err := a.client()
	if err != nil {
		return 0, fmt.Errorf("createTicketAsset: %w", err)
	}

	txParams, err := algodClient.SuggestedParams()
	if err != nil {
		return 0, fmt.Errorf("createTicketAsset: error getting suggested tx params: %w", err)
	}

	genID := txParams.GenesisID
	genHash := base64.StdEncoding.EncodeToString(txParams.GenesisHash)
	firstValidRound := txParams.LastRound
	lastValidRound := firstValidRound + 1000

	// A ticket is a single indivisible unit. Manager and clawback stay with
	// the platform so the controlled-transfer path is the only transfer.
	creator := issuer.AccountAddress
	defaultFrozen := true
	decimals := uint32(0)
	totalIssuance := uint64(1)
	manager := a.platform.AccountAddress
	reserve := a.platform.AccountAddress
	freeze := a.platform.AccountAddress
	clawback := a.platform.AccountAddress

	txn, err := transaction.MakeAssetCreateTxn(creator, a.minFee, firstValidRound, lastValidRound, nil,
		genID, genHash, totalIssuance, decimals, defaultFrozen, manager, reserve, freeze, clawback,
		unitName, assetName, "", "")
	if err != nil {
		return 0, fmt.Errorf("createTicketAsset: failed to make asset: %w", err)
	}

	privateKey, err := mnemonic.ToPrivateKey(issuer.SecurityPassphrase)
	if err != nil {
		return 0, fmt.Errorf("createTicketAsset: error getting private key from mnemonic: %w", err)
	}

	txid, stx, err := crypto.SignTransaction(privateKey, txn)
	if err != nil {
		return 0, fmt.Errorf("createTicketAsset: failed to sign transaction: %w", err)
	}
	logger.Infof(ctx, "createTicketAsset: signed txid: %s", txid)

	txHeaders := append([]*algod.Header{}, &algod.Header{Key: "Content-Type", Value: "application/x-binary"})
	sendResponse, err := algodClient.SendRawTransaction(stx, txHeaders...)
	if err != nil {
		return 0, fmt.Errorf("createTicketAsset: failed to send transaction: %w", err)
	}

	waitForConfirmation(ctx, algodClient, sendResponse.TxID)

	act, err := algodClient.AccountInformation(issuer.AccountAddress)
	if err != nil {
		return 0, fmt.Errorf("createTicketAsset: failed to get account information: %w", err)
	}

	assetID := uint64(0)
	for i := range act.AssetParams {
		if i > assetID {
			assetID = i
		}
	}
	logger.Infof(ctx, "createTicketAsset: asset id %d for %s", assetID, assetName)

	return assetID, nil
}

func (a *algo) DestroyTicketAsset(ctx context.Context, issuer *Account, assetID uint64) error {
	algodClient, err := a.client()
	if err != nil {
		return fmt.Errorf("destroyTicketAsset: %w", err)
	}

	txParams, err := algodClient.SuggestedParams()
	if err != nil {
		return fmt.Errorf("destroyTicketAsset: error getting suggested tx params: %w", err)
	}

	genID := txParams.GenesisID
	genHash := base64.StdEncoding.EncodeToString(txParams.GenesisHash)
	firstValidRound := txParams.LastRound
	lastValidRound := firstValidRound + 1000

	// Destroy runs under the platform manager account.
	txn, err := transaction.MakeAssetDestroyTxn(a.platform.AccountAddress, a.minFee,
		firstValidRound, lastValidRound, nil, genID, genHash, assetID)
	if err != nil {
		return fmt.Errorf("destroyTicketAsset: failed to make destroy txn: %w", err)
	}

	privateKey, err := mnemonic.ToPrivateKey(a.platform.SecurityPassphrase)
	if err != nil {
		return fmt.Errorf("destroyTicketAsset: error getting private key from mnemonic: %w", err)
	}

	txid, stx, err := crypto.SignTransaction(privateKey, txn)
	if err != nil {
		return fmt.Errorf("destroyTicketAsset: failed to sign transaction: %w", err)
	}
	logger.Infof(ctx, "destroyTicketAsset: signed txid: %s", txid)

	txHeaders := append([]*algod.Header{}, &algod.Header{Key: "Content-Type", Value: "application/x-binary"})
	sendResponse, err := algodClient.SendRawTransaction(stx, txHeaders...)
	if err != nil {
		return fmt.Errorf("destroyTicketAsset: failed to send transaction: %w", err)
	}

	waitForConfirmation(ctx, algodClient, sendResponse.TxID)

	return nil
}

func (a *algo) client() (algod.Client, error) {
	var headers []*algod.Header
	headers = append(headers, &algod.Header{Key: "X-API-Key", Value: a.apiKey})
	algodClient, err := algod.MakeClientWithHeaders(a.apiAddress, "", headers)
	if err != nil {
		return algod.Client{}, fmt.Errorf("client: error connecting to algo: %w", err)
	}
	return algodClient, nil
}

// Function that waits for a given txId to be confirmed by the network
func waitForConfirmation(ctx context.Context, algodClient algod.Client, txID string) {
	for {
		pt, err := algodClient.PendingTransactionInformation(txID)
		if err != nil {
			logger.Infof(ctx, "waiting for confirmation... (pool error, if any): %s", err)
			continue
		}
		if pt.ConfirmedRound > 0 {
			logger.Infof(ctx, "Transaction "+pt.TxID+" confirmed in round %d", pt.ConfirmedRound)
			break
		}
		nodeStatus, err := algodClient.Status()
		if err != nil {
			logger.Warnf(ctx, "error getting algod status: %s", err)
			return
		}
		algodClient.StatusAfterBlock(nodeStatus.LastRound + 1)
	}
}
