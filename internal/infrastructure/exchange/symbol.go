package exchange

import (
	"strings"
)

// knownQuotes 按长度从长到短匹配
var knownQuotes = []string{"USDT", "USDC", "BUSD", "FDUSD", "EUR", "USD", "BTC", "ETH"}

// SplitSymbol BTCUSDT -> (BTC, USDT)。无法识别计价币时 quote 为空
func SplitSymbol(symbol string) (base, quote string) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	best := ""
	for _, q := range knownQuotes {
		if strings.HasSuffix(sym, q) && len(sym) > len(q) && len(q) > len(best) {
			best = q
		}
	}
	if best == "" {
		return sym, ""
	}
	return strings.TrimSuffix(sym, best), best
}

// SymbolConverter 把统一格式（BTCUSDT）转换为交易所格式
type SymbolConverter interface {
	VenueSymbol(symbol string) string
	// Symbol2Coin BTCUSDT -> BTC
	Symbol2Coin(symbol string) string
}

// CommonSymbolConverter 通用符号转换器：可选分隔符与币种别名
type CommonSymbolConverter struct {
	sep     string
	aliases map[string]string
}

// NewCommonSymbolConverter sep 为 base 与 quote 之间的分隔符，aliases 例如 BTC -> XBT
func NewCommonSymbolConverter(sep string, aliases map[string]string) *CommonSymbolConverter {
	norm := make(map[string]string, len(aliases))
	for k, v := range aliases {
		norm[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	return &CommonSymbolConverter{sep: sep, aliases: norm}
}

func (c *CommonSymbolConverter) Symbol2Coin(symbol string) string {
	base, _ := SplitSymbol(symbol)
	return base
}

func (c *CommonSymbolConverter) VenueSymbol(symbol string) string {
	base, quote := SplitSymbol(symbol)
	if base == "" {
		return ""
	}
	if alias, ok := c.aliases[base]; ok {
		base = alias
	}
	if quote == "" {
		return base
	}
	return base + c.sep + quote
}
