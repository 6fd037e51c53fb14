package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"landq/internal/platform/config"
	"landq/internal/platform/metrics"
)

// Client talks to the verifier, lending, NFT and settlement-token contracts
// through a single signing identity. It performs no retries and no local
// mutual exclusion: conflicting writes for the same token are resolved by the
// contracts' accept/reject semantics, which this client surfaces verbatim.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	signer  *bind.TransactOpts
	from    common.Address

	verifier *bind.BoundContract
	lending  *bind.BoundContract
	nft      *bind.BoundContract
	tokens   map[Currency]*bind.BoundContract

	lendingAddr common.Address
	tokenAddrs  map[Currency]common.Address

	confirmTimeout time.Duration
	metrics        *metrics.Metrics
}

// Dial connects to the RPC endpoint and binds all contracts.
func Dial(ctx context.Context, cfg config.Ledger, m *metrics.Metrics) (*Client, error) {
	if cfg.PrivateKeyHex == "" {
		return nil, fmt.Errorf("ledger: private key is required")
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("ledger: dial %s: %w", cfg.RPCURL, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("ledger: parse private key: %w", err)
	}
	chainID := big.NewInt(cfg.ChainID)
	signer, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("ledger: build transactor: %w", err)
	}

	c := &Client{
		eth:         eth,
		chainID:     chainID,
		signer:      signer,
		from:        signer.From,
		tokens:      make(map[Currency]*bind.BoundContract),
		tokenAddrs:  make(map[Currency]common.Address),
		lendingAddr: common.HexToAddress(cfg.LendingAddress),

		confirmTimeout: cfg.ConfirmTimeout,
		metrics:        m,
	}

	c.verifier, err = bindContract(cfg.VerifierAddress, verifierABI, eth)
	if err != nil {
		return nil, fmt.Errorf("ledger: bind verifier: %w", err)
	}
	c.lending, err = bindContract(cfg.LendingAddress, lendingABI, eth)
	if err != nil {
		return nil, fmt.Errorf("ledger: bind lending: %w", err)
	}
	c.nft, err = bindContract(cfg.NFTAddress, nftABI, eth)
	if err != nil {
		return nil, fmt.Errorf("ledger: bind nft: %w", err)
	}
	for currency, addr := range map[Currency]string{
		CurrencyUSDT: cfg.USDTAddress,
		CurrencyBTC:  cfg.BTCAddress,
	} {
		token, err := bindContract(addr, erc20ABI, eth)
		if err != nil {
			return nil, fmt.Errorf("ledger: bind %s token: %w", currency, err)
		}
		c.tokens[currency] = token
		c.tokenAddrs[currency] = common.HexToAddress(addr)
	}

	return c, nil
}

func bindContract(addr, rawABI string, eth *ethclient.Client) (*bind.BoundContract, error) {
	if addr == "" {
		return nil, errors.New("contract address is empty")
	}
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(common.HexToAddress(addr), parsed, eth, eth, eth), nil
}

// Address returns the signing identity used for all writes.
func (c *Client) Address() common.Address { return c.from }

// Close releases the underlying RPC connection.
func (c *Client) Close() { c.eth.Close() }

// --------------- reads ---------------

// AgencyForRegion resolves the registered agency and fee for a region key.
// An unregistered region returns a zero-address Agency; callers must check
// Registered() and fail closed.
func (c *Client) AgencyForRegion(ctx context.Context, region string) (Agency, error) {
	key, err := RegionKey(region)
	if err != nil {
		return Agency{}, err
	}
	var out []any
	if err := c.verifier.Call(&bind.CallOpts{Context: ctx}, &out, "getAgency", key); err != nil {
		return Agency{}, fmt.Errorf("getAgency(%s): %w", region, err)
	}
	return Agency{
		Address: *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		Fee:     abi.ConvertType(out[1], new(big.Int)).(*big.Int),
	}, nil
}

// HasPendingRequest reports whether the ledger holds an unresolved
// verification request for the token.
func (c *Client) HasPendingRequest(ctx context.Context, tokenID uint64) (bool, error) {
	return c.readBool(ctx, c.verifier, "hasPendingRequest", tokenID)
}

// HasPendingReappraisal reports whether a reappraisal is outstanding.
func (c *Client) HasPendingReappraisal(ctx context.Context, tokenID uint64) (bool, error) {
	return c.readBool(ctx, c.verifier, "hasPendingReappraisal", tokenID)
}

// IsVerified reports whether the token has passed jurisdictional sign-off.
func (c *Client) IsVerified(ctx context.Context, tokenID uint64) (bool, error) {
	return c.readBool(ctx, c.verifier, "isVerified", tokenID)
}

// AppraisedPrice returns the last agency appraisal in USDT subunits.
func (c *Client) AppraisedPrice(ctx context.Context, tokenID uint64) (*big.Int, error) {
	var out []any
	if err := c.verifier.Call(&bind.CallOpts{Context: ctx}, &out, "getAppraisedPrice", new(big.Int).SetUint64(tokenID)); err != nil {
		return nil, fmt.Errorf("getAppraisedPrice(%d): %w", tokenID, err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// LoanByToken returns the loan record collateralized by the token. A zero
// record with LoanStatusNone means no loan was ever issued.
func (c *Client) LoanByToken(ctx context.Context, tokenID uint64) (Loan, error) {
	var out []any
	if err := c.lending.Call(&bind.CallOpts{Context: ctx}, &out, "loans", new(big.Int).SetUint64(tokenID)); err != nil {
		return Loan{}, fmt.Errorf("loans(%d): %w", tokenID, err)
	}
	due := abi.ConvertType(out[3], new(big.Int)).(*big.Int)
	token := abi.ConvertType(out[4], new(big.Int)).(*big.Int)
	return Loan{
		Borrower:     *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		PrincipalUSD: abi.ConvertType(out[1], new(big.Int)).(*big.Int),
		AmountOwed:   abi.ConvertType(out[2], new(big.Int)).(*big.Int),
		DueTimestamp: due.Uint64(),
		TokenID:      token.Uint64(),
		Status:       LoanStatus(*abi.ConvertType(out[5], new(uint8)).(*uint8)),
	}, nil
}

// BTCPriceUSDT returns the exchange rate: USDT subunits per whole BTC.
// It is read fresh on every call; callers must not cache it.
func (c *Client) BTCPriceUSDT(ctx context.Context) (*big.Int, error) {
	var out []any
	if err := c.lending.Call(&bind.CallOpts{Context: ctx}, &out, "btcPriceUSDT"); err != nil {
		return nil, fmt.Errorf("btcPriceUSDT: %w", err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// OwnerOf returns the current holder of the parcel token.
func (c *Client) OwnerOf(ctx context.Context, tokenID uint64) (common.Address, error) {
	var out []any
	if err := c.nft.Call(&bind.CallOpts{Context: ctx}, &out, "ownerOf", new(big.Int).SetUint64(tokenID)); err != nil {
		return common.Address{}, fmt.Errorf("ownerOf(%d): %w", tokenID, err)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// TokenURI returns the metadata reference recorded for the parcel token.
func (c *Client) TokenURI(ctx context.Context, tokenID uint64) (string, error) {
	var out []any
	if err := c.nft.Call(&bind.CallOpts{Context: ctx}, &out, "tokenURI", new(big.Int).SetUint64(tokenID)); err != nil {
		return "", fmt.Errorf("tokenURI(%d): %w", tokenID, err)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// Allowance returns this signer's spending allowance to the lending contract
// for the given settlement token.
func (c *Client) Allowance(ctx context.Context, currency Currency) (*big.Int, error) {
	token, ok := c.tokens[currency]
	if !ok {
		return nil, fmt.Errorf("unknown currency %q", currency)
	}
	var out []any
	if err := token.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", c.from, c.lendingAddr); err != nil {
		return nil, fmt.Errorf("allowance(%s): %w", currency, err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Balance returns this signer's balance of the given settlement token.
func (c *Client) Balance(ctx context.Context, currency Currency) (*big.Int, error) {
	token, ok := c.tokens[currency]
	if !ok {
		return nil, fmt.Errorf("unknown currency %q", currency)
	}
	var out []any
	if err := token.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", c.from); err != nil {
		return nil, fmt.Errorf("balanceOf(%s): %w", currency, err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

func (c *Client) readBool(ctx context.Context, contract *bind.BoundContract, method string, tokenID uint64) (bool, error) {
	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, new(big.Int).SetUint64(tokenID)); err != nil {
		return false, fmt.Errorf("%s(%d): %w", method, tokenID, err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// --------------- writes ---------------

// RequestVerification submits a fee-paying verification request.
func (c *Client) RequestVerification(ctx context.Context, tokenID uint64, fee *big.Int) (Outcome, error) {
	return c.transact(ctx, c.verifier, fee, "requestVerification", new(big.Int).SetUint64(tokenID))
}

// RequestReappraisal submits a fee-paying reappraisal request for an already
// verified parcel.
func (c *Client) RequestReappraisal(ctx context.Context, tokenID uint64, fee *big.Int) (Outcome, error) {
	return c.transact(ctx, c.verifier, fee, "requestReappraisal", new(big.Int).SetUint64(tokenID))
}

// SubmitAppraisal records the agency's valuation and marks the token verified.
func (c *Client) SubmitAppraisal(ctx context.Context, tokenID uint64, priceUSD *big.Int) (Outcome, error) {
	return c.transact(ctx, c.verifier, nil, "verifyAndAppraise", new(big.Int).SetUint64(tokenID), priceUSD)
}

// UpdateAppraisal replaces the valuation after a reappraisal request.
func (c *Client) UpdateAppraisal(ctx context.Context, tokenID uint64, priceUSD *big.Int) (Outcome, error) {
	return c.transact(ctx, c.verifier, nil, "updateAppraisal", new(big.Int).SetUint64(tokenID), priceUSD)
}

// SetAgency registers or replaces the agency for a region.
func (c *Client) SetAgency(ctx context.Context, region string, agency common.Address, fee *big.Int) (Outcome, error) {
	key, err := RegionKey(region)
	if err != nil {
		return Outcome{}, err
	}
	return c.transact(ctx, c.verifier, nil, "setAgency", key, agency, fee)
}

// ChangeAgencyFee updates the fee for an existing region registration.
func (c *Client) ChangeAgencyFee(ctx context.Context, region string, fee *big.Int) (Outcome, error) {
	key, err := RegionKey(region)
	if err != nil {
		return Outcome{}, err
	}
	return c.transact(ctx, c.verifier, nil, "changeAgencyFee", key, fee)
}

// IssueLoan draws a loan against a verified parcel.
func (c *Client) IssueLoan(ctx context.Context, tokenID uint64, amountUSDT *big.Int, periodSeconds uint64) (Outcome, error) {
	return c.transact(ctx, c.lending, nil, "issueLoan",
		new(big.Int).SetUint64(tokenID), amountUSDT, new(big.Int).SetUint64(periodSeconds))
}

// Approve grants the lending contract a spending allowance of exactly amount.
func (c *Client) Approve(ctx context.Context, currency Currency, amount *big.Int) (Outcome, error) {
	token, ok := c.tokens[currency]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown currency %q", currency)
	}
	return c.transact(ctx, token, nil, "approve", c.lendingAddr, amount)
}

// RepayLoan repays amount (in the chosen settlement token's subunits) against
// the loan collateralized by tokenID.
func (c *Client) RepayLoan(ctx context.Context, tokenID uint64, amount *big.Int, inBTC bool) (Outcome, error) {
	return c.transact(ctx, c.lending, nil, "repayLoan",
		new(big.Int).SetUint64(tokenID), amount, inBTC)
}

// transact broadcasts one transaction and waits once, cancellably, for its
// receipt. Broadcast is a fire-and-forget irrevocable side effect: if the
// caller abandons the wait the Outcome is StatePending and nothing is rolled
// back or retried.
func (c *Client) transact(ctx context.Context, contract *bind.BoundContract, value *big.Int, method string, args ...any) (Outcome, error) {
	opts := *c.signer
	opts.Context = ctx
	opts.Value = value

	tx, err := contract.Transact(&opts, method, args...)
	if err != nil {
		return Outcome{}, fmt.Errorf("broadcast %s: %w", method, err)
	}
	start := time.Now()

	// The wait is bounded twice: by the caller's context and by the
	// configured confirmation timeout. Hitting either leaves the broadcast
	// in flight and reports pending.
	waitCtx := ctx
	if c.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.confirmTimeout)
		defer cancel()
	}
	receipt, err := bind.WaitMined(waitCtx, c.eth, tx)
	if err != nil {
		// Wait abandoned; the transaction is already on the wire.
		return Outcome{State: StatePending, TxHash: tx.Hash()}, nil
	}
	c.metrics.ObserveLedgerWrite(method, start)
	if receipt.Status != types.ReceiptStatusSuccessful {
		return Outcome{State: StateFailed, TxHash: tx.Hash(), Reason: method + " reverted"}, nil
	}
	return Outcome{State: StateSucceeded, TxHash: tx.Hash()}, nil
}
