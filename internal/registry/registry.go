package registry

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Token is an immutable descriptor for a tracked asset.
type Token struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
	// FallbackPrice is a static USD peg used when the oracle is unavailable.
	// Zero means no fallback exists for this token.
	FallbackPrice decimal.Decimal
}

// Registry provides read-only token lookup by address or symbol.
// It is built once at startup and safe for concurrent use.
type Registry struct {
	byAddress map[common.Address]Token
	bySymbol  map[string]Token
}

// New builds a registry from the configured token list.
// Address lookup is case-insensitive: common.Address normalizes the hex form,
// so mixed-case input resolves to the same key.
func New(tokens []Token) *Registry {
	r := &Registry{
		byAddress: make(map[common.Address]Token, len(tokens)),
		bySymbol:  make(map[string]Token, len(tokens)),
	}
	for _, tok := range tokens {
		r.byAddress[tok.Address] = tok
		r.bySymbol[strings.ToUpper(tok.Symbol)] = tok
	}
	return r
}

// Resolve returns the token descriptor for an address.
func (r *Registry) Resolve(address common.Address) (Token, bool) {
	tok, ok := r.byAddress[address]
	return tok, ok
}

// ResolveHex resolves a token from a hex address string, any casing.
func (r *Registry) ResolveHex(address string) (Token, bool) {
	if !common.IsHexAddress(address) {
		return Token{}, false
	}
	return r.Resolve(common.HexToAddress(address))
}

// ResolveBySymbol returns the token descriptor for a symbol, any casing.
// Used only on configuration and fallback paths.
func (r *Registry) ResolveBySymbol(symbol string) (Token, bool) {
	tok, ok := r.bySymbol[strings.ToUpper(symbol)]
	return tok, ok
}

// Tokens returns all registered tokens.
func (r *Registry) Tokens() []Token {
	tokens := make([]Token, 0, len(r.byAddress))
	for _, tok := range r.byAddress {
		tokens = append(tokens, tok)
	}
	return tokens
}

// Len returns the number of registered tokens.
func (r *Registry) Len() int {
	return len(r.byAddress)
}
