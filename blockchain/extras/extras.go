package extras

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/gurrpi/codechain/storage/base"
)

// table prefixes inside the chain database
const (
	BlockDetailsPrefix = "bd"
	TxAddressPrefix    = "ta"
)

// BlockDetails familial details concerning a block
type BlockDetails struct {
	// Block number
	Number int64 `json:"number"`
	// Total score of the block and all its parents
	TotalScore *big.Int `json:"totalScore"`
	// Parent block hash
	Parent string `json:"parent"`
	// List of children block hashes
	Children []string `json:"children,omitempty"`
}

// TransactionAddress represents address of certain transaction within block
type TransactionAddress struct {
	// Block hash
	BlockHash string `json:"blockHash"`
	// Transaction index within the block
	Index int `json:"index"`
}

// Store persists block/transaction index entries in the chain database
type Store struct {
	details *base.Table
	txAddrs *base.Table
}

func NewStore(db base.Database) *Store {
	return &Store{
		details: base.NewTable(db, BlockDetailsPrefix),
		txAddrs: base.NewTable(db, TxAddressPrefix),
	}
}

func (t *Store) PutBlockDetails(hash string, details *BlockDetails) error {
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal block details failed.hash:%s,err:%v", hash, err)
	}

	return t.details.Put([]byte(hash), data)
}

// GetBlockDetails return (nil, nil) when the hash has no entry
func (t *Store) GetBlockDetails(hash string) (*BlockDetails, error) {
	ok, err := t.details.Has([]byte(hash))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	data, err := t.details.Get([]byte(hash))
	if err != nil {
		return nil, err
	}

	details := new(BlockDetails)
	if err = json.Unmarshal(data, details); err != nil {
		return nil, fmt.Errorf("unmarshal block details failed.hash:%s,err:%v", hash, err)
	}
	return details, nil
}

// AddChild append a child hash to the parent's details
func (t *Store) AddChild(parent string, child string) error {
	details, err := t.GetBlockDetails(parent)
	if err != nil {
		return err
	}
	if details == nil {
		return fmt.Errorf("unknown parent block:%s", parent)
	}

	for _, c := range details.Children {
		if c == child {
			return nil
		}
	}
	details.Children = append(details.Children, child)
	return t.PutBlockDetails(parent, details)
}

func (t *Store) PutTransactionAddress(txHash string, addr *TransactionAddress) error {
	data, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("marshal tx address failed.hash:%s,err:%v", txHash, err)
	}

	return t.txAddrs.Put([]byte(txHash), data)
}

// GetTransactionAddress return (nil, nil) when the hash has no entry
func (t *Store) GetTransactionAddress(txHash string) (*TransactionAddress, error) {
	ok, err := t.txAddrs.Has([]byte(txHash))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	data, err := t.txAddrs.Get([]byte(txHash))
	if err != nil {
		return nil, err
	}

	addr := new(TransactionAddress)
	if err = json.Unmarshal(data, addr); err != nil {
		return nil, fmt.Errorf("unmarshal tx address failed.hash:%s,err:%v", txHash, err)
	}
	return addr, nil
}
