package marketseed

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/permadex/marketseed/schema"
)

// OwnershipPort is the capability the engine consumes from the external
// token collaborator. Transfer failures are opaque to the core; any
// settlement state already staged must be discarded when one occurs.
type OwnershipPort interface {
	OwnerOf(ref schema.TokenRef) (common.Address, error)
	IsApprovedFor(ref schema.TokenRef, owner, operator common.Address) (bool, error)
	Transfer(ref schema.TokenRef, from, to common.Address) error
}

const erc721PortABI = `[
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"name":"isApprovedForAll","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"name":"transferFrom","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

// EthPort reaches an ERC-721 collection over an EVM rpc node. Transfers
// are signed with the market operator key; a port built without transact
// opts is read-only and rejects transfers.
type EthPort struct {
	cli    *ethclient.Client
	ctrAbi abi.ABI
	opts   *bind.TransactOpts
}

func NewEthPort(rpcUrl string, opts *bind.TransactOpts) (*EthPort, error) {
	cli, err := ethclient.Dial(rpcUrl)
	if err != nil {
		return nil, err
	}
	ctrAbi, err := abi.JSON(strings.NewReader(erc721PortABI))
	if err != nil {
		return nil, err
	}
	return &EthPort{cli: cli, ctrAbi: ctrAbi, opts: opts}, nil
}

// NewKeyedEthPort builds a transacting port from the operator's hex
// private key; an empty key yields a read-only port.
func NewKeyedEthPort(rpcUrl, prvHex string) (*EthPort, error) {
	var opts *bind.TransactOpts
	if prvHex != "" {
		cli, err := ethclient.Dial(rpcUrl)
		if err != nil {
			return nil, err
		}
		chainId, err := cli.ChainID(context.Background())
		if err != nil {
			return nil, err
		}
		prv, err := crypto.HexToECDSA(strings.TrimPrefix(prvHex, "0x"))
		if err != nil {
			return nil, err
		}
		opts, err = bind.NewKeyedTransactorWithChainID(prv, chainId)
		if err != nil {
			return nil, err
		}
	}
	return NewEthPort(rpcUrl, opts)
}

func (p *EthPort) OwnerOf(ref schema.TokenRef) (common.Address, error) {
	data, err := p.ctrAbi.Pack("ownerOf", new(big.Int).SetUint64(ref.TokenId))
	if err != nil {
		return common.Address{}, err
	}
	res, err := p.cli.CallContract(context.Background(), ethereum.CallMsg{
		To:   &ref.Collection,
		Data: data,
	}, nil)
	if err != nil {
		return common.Address{}, err
	}
	out, err := p.ctrAbi.Unpack("ownerOf", res)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (p *EthPort) IsApprovedFor(ref schema.TokenRef, owner, operator common.Address) (bool, error) {
	data, err := p.ctrAbi.Pack("isApprovedForAll", owner, operator)
	if err != nil {
		return false, err
	}
	res, err := p.cli.CallContract(context.Background(), ethereum.CallMsg{
		To:   &ref.Collection,
		Data: data,
	}, nil)
	if err != nil {
		return false, err
	}
	out, err := p.ctrAbi.Unpack("isApprovedForAll", res)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (p *EthPort) Transfer(ref schema.TokenRef, from, to common.Address) error {
	if p.opts == nil {
		log.Error("eth port has no transact opts, reject transfer", "collection", ref.Collection, "tokenId", ref.TokenId)
		return schema.ErrTransferRejected
	}
	contract := bind.NewBoundContract(ref.Collection, p.ctrAbi, p.cli, p.cli, p.cli)
	_, err := contract.Transact(p.opts, "transferFrom", from, to, new(big.Int).SetUint64(ref.TokenId))
	if err != nil {
		log.Error("erc721 transferFrom failed", "err", err, "collection", ref.Collection, "tokenId", ref.TokenId)
		return schema.ErrTransferRejected
	}
	return nil
}

func (p *EthPort) TokenURI(ref schema.TokenRef) (string, error) {
	data, err := p.ctrAbi.Pack("tokenURI", new(big.Int).SetUint64(ref.TokenId))
	if err != nil {
		return "", err
	}
	res, err := p.cli.CallContract(context.Background(), ethereum.CallMsg{
		To:   &ref.Collection,
		Data: data,
	}, nil)
	if err != nil {
		return "", err
	}
	out, err := p.ctrAbi.Unpack("tokenURI", res)
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

type tokenMove struct {
	ref  schema.TokenRef
	from common.Address
	to   common.Address
}

// stagedPort overlays in-batch ownership moves on an inner port, so a
// purchase can observe a transfer staged earlier in the same batch. Real
// transfers are deferred until the batch commits; until then the inner
// port is never mutated.
type stagedPort struct {
	inner    OwnershipPort
	operator common.Address
	owners   map[schema.TokenRef]common.Address
	moves    []tokenMove
}

func newStagedPort(inner OwnershipPort, operator common.Address) *stagedPort {
	return &stagedPort{
		inner:    inner,
		operator: operator,
		owners:   make(map[schema.TokenRef]common.Address),
	}
}

func (p *stagedPort) OwnerOf(ref schema.TokenRef) (common.Address, error) {
	if owner, ok := p.owners[ref]; ok {
		return owner, nil
	}
	return p.inner.OwnerOf(ref)
}

func (p *stagedPort) IsApprovedFor(ref schema.TokenRef, owner, operator common.Address) (bool, error) {
	return p.inner.IsApprovedFor(ref, owner, operator)
}

// Transfer validates the full port contract up front: the sender must be
// the current staged owner and must hold an operator approval, the same
// checks the inner port re-runs at flush time. A move accepted here is
// one the inner port has no grounds to refuse.
func (p *stagedPort) Transfer(ref schema.TokenRef, from, to common.Address) error {
	owner, err := p.OwnerOf(ref)
	if err != nil {
		return schema.ErrTransferRejected
	}
	if owner != from {
		return schema.ErrTransferRejected
	}
	approved, err := p.inner.IsApprovedFor(ref, from, p.operator)
	if err != nil || !approved {
		return schema.ErrTransferRejected
	}
	p.owners[ref] = to
	p.moves = append(p.moves, tokenMove{ref: ref, from: from, to: to})
	return nil
}

// flush applies the staged moves to the inner port, in order. It runs
// before anything durable is written, so a refusal aborts the whole unit
// with zero net effect.
func (p *stagedPort) flush() error {
	for _, mv := range p.moves {
		if err := p.inner.Transfer(mv.ref, mv.from, mv.to); err != nil {
			log.Error("staged transfer rejected at commit", "err", err,
				"collection", mv.ref.Collection, "tokenId", mv.ref.TokenId, "from", mv.from, "to", mv.to)
			return schema.ErrTransferRejected
		}
	}
	return nil
}
