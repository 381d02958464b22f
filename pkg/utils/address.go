package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

const (
	ChainEthereum = "ethereum"
	ChainSolana   = "solana"
)

var (
	ErrInvalidAddress   = errors.New("invalid address")
	ErrUnsupportedChain = errors.New("unsupported chain")
)

// NormalizeEVMAddress 去掉可选的 0x 前缀并转小写，结果必须是 40 位 hex
// 这是 Dune 查询 token_address 参数要求的格式
func NormalizeEVMAddress(address string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(address))
	a = strings.TrimPrefix(a, "0x")
	if len(a) != 40 {
		return "", fmt.Errorf("%w: expected 40 hex characters, got %d", ErrInvalidAddress, len(a))
	}
	for _, c := range a {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return "", fmt.Errorf("%w: non-hex character %q", ErrInvalidAddress, c)
		}
	}
	return a, nil
}

// AddressKey 地址去重用的 key，大小写不敏感
func AddressKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsSupportedChain 只支持 ethereum / solana
func IsSupportedChain(chain string) bool {
	return chain == ChainEthereum || chain == ChainSolana
}

// ValidateTokenAddress 按链校验地址格式
func ValidateTokenAddress(chain, address string) error {
	address = strings.TrimSpace(address)
	switch chain {
	case ChainEthereum:
		if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
			return fmt.Errorf("%w: ethereum address must be 0x followed by 40 hex characters", ErrInvalidAddress)
		}
		return nil
	case ChainSolana:
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			return fmt.Errorf("%w: solana address: %v", ErrInvalidAddress, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported chain %q", ErrInvalidAddress, chain)
	}
}
