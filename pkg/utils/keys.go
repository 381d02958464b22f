package utils

import (
	"fmt"
	"strings"
)

// TokenPriceKey solana 地址区分大小写，只有 evm 地址转小写
func TokenPriceKey(chain, tokenAddress string) string {
	chain = strings.ToLower(chain)
	tokenAddress = strings.TrimSpace(tokenAddress)
	if chain == ChainEthereum {
		tokenAddress = AddressKey(tokenAddress)
	}
	return fmt.Sprintf("meme_radar:price:%s:%s", chain, tokenAddress)
}

func ImportStatusKey(tokenID string) string {
	return fmt.Sprintf("meme_radar:import:%s", tokenID)
}

// ChangeChannel redis pub/sub 频道
func ChangeChannel(collection string) string {
	return fmt.Sprintf("meme_radar:changes:%s", collection)
}
