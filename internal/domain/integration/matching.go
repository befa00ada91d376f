package integration

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/stocksync/backend/internal/domain/catalog"
)

// ---------------------------------------------------------------------------
// Group keys
// ---------------------------------------------------------------------------

// GroupKeyKind names the rule that produced a group key
type GroupKeyKind string

const (
	GroupKeyKindSKU  GroupKeyKind = "sku"
	GroupKeyKindCode GroupKeyKind = "code"
	GroupKeyKindName GroupKeyKind = "name"
)

// GroupKey identifies products believed to be the same physical item
type GroupKey struct {
	Kind  GroupKeyKind
	Value string
}

// String renders the key as "<kind>:<value>", the form stored in the
// dismissed-suggestion table
func (k GroupKey) String() string {
	return string(k.Kind) + ":" + k.Value
}

// ParseGroupKey parses a "<kind>:<value>" suggestion key
func ParseGroupKey(raw string) (GroupKey, error) {
	kind, value, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || value == "" || len(raw) > 255 {
		return GroupKey{}, ErrInvalidSuggestionKey
	}
	switch GroupKeyKind(kind) {
	case GroupKeyKindSKU, GroupKeyKindCode, GroupKeyKindName:
		return GroupKey{Kind: GroupKeyKind(kind), Value: value}, nil
	default:
		return GroupKey{}, ErrInvalidSuggestionKey
	}
}

// GroupKeyStrategy derives a group key from a product, or reports that the
// rule does not apply
type GroupKeyStrategy interface {
	Kind() GroupKeyKind
	Key(p *catalog.Product) (GroupKey, bool)
}

// BySku keys products by their lowercased, trimmed SKU
type BySku struct{}

// Kind returns GroupKeyKindSKU
func (BySku) Kind() GroupKeyKind { return GroupKeyKindSKU }

// Key returns sku:<sku> for products with a non-empty SKU
func (BySku) Key(p *catalog.Product) (GroupKey, bool) {
	sku := strings.ToLower(strings.TrimSpace(p.SKU))
	if sku == "" {
		return GroupKey{}, false
	}
	return GroupKey{Kind: GroupKeyKindSKU, Value: sku}, true
}

// leadingCodePattern matches an alphanumeric token with at most one internal
// hyphen or underscore at the start of a name, followed by whitespace
var leadingCodePattern = regexp.MustCompile(`^([A-Za-z0-9]+(?:[-_][A-Za-z0-9]+)?)\s`)

// ByExtractedCode keys products by a SKU-like token at the start of the name
type ByExtractedCode struct{}

// Kind returns GroupKeyKindCode
func (ByExtractedCode) Kind() GroupKeyKind { return GroupKeyKindCode }

// Key returns code:<token> when the name starts with a token of at least
// three characters containing a digit
func (ByExtractedCode) Key(p *catalog.Product) (GroupKey, bool) {
	token, ok := ExtractCode(p.Name)
	if !ok {
		return GroupKey{}, false
	}
	return GroupKey{Kind: GroupKeyKindCode, Value: strings.ToLower(token)}, true
}

// ExtractCode returns the leading SKU-like token of a product name
func ExtractCode(name string) (string, bool) {
	m := leadingCodePattern.FindStringSubmatch(strings.TrimLeft(name, " \t"))
	if m == nil {
		return "", false
	}
	token := m[1]
	if len(token) < 3 || !strings.ContainsAny(token, "0123456789") {
		return "", false
	}
	return token, true
}

// ByNormalizedName keys products by their lowercased, whitespace-collapsed name
type ByNormalizedName struct{}

// Kind returns GroupKeyKindName
func (ByNormalizedName) Kind() GroupKeyKind { return GroupKeyKindName }

// Key returns name:<normalized name> for products with a non-blank name
func (ByNormalizedName) Key(p *catalog.Product) (GroupKey, bool) {
	name := NormalizeName(p.Name)
	if name == "" {
		return GroupKey{}, false
	}
	return GroupKey{Kind: GroupKeyKindName, Value: name}, true
}

// NormalizeName applies NFC, lowercases and collapses runs of whitespace.
// A Caser is stateful, so one is built per call.
func NormalizeName(name string) string {
	name = cases.Lower(language.Und).String(norm.NFC.String(name))
	return strings.Join(strings.Fields(name), " ")
}

// GroupKeyChain applies strategies in order; the first that applies wins
type GroupKeyChain []GroupKeyStrategy

// DefaultGroupKeyChain is SKU, then extracted code, then normalized name
func DefaultGroupKeyChain() GroupKeyChain {
	return GroupKeyChain{BySku{}, ByExtractedCode{}, ByNormalizedName{}}
}

// KeyFor returns the first applicable key for a product
func (c GroupKeyChain) KeyFor(p *catalog.Product) (GroupKey, bool) {
	for _, s := range c {
		if k, ok := s.Key(p); ok {
			return k, true
		}
	}
	return GroupKey{}, false
}

// ---------------------------------------------------------------------------
// Suggestions
// ---------------------------------------------------------------------------

// SuggestionProduct is one member of a suggestion
type SuggestionProduct struct {
	ProductID      uuid.UUID
	StoreID        uuid.UUID
	Name           string
	SKU            string
	EffectiveStock int
}

// Suggestion is a computed, non-durable candidate mapping
type Suggestion struct {
	Key        GroupKey
	Products   []SuggestionProduct
	StoreCount int
	// TotalStock sums effective stock across members
	TotalStock int
	// RealStock is the effective stock of the first member, the provisional source
	RealStock int
}

// MasterSKU proposes a master SKU: the first non-empty member SKU, else the
// uppercased key value with spaces replaced by hyphens
func (s *Suggestion) MasterSKU() string {
	for _, p := range s.Products {
		if sku := strings.TrimSpace(p.SKU); sku != "" {
			return sku
		}
	}
	v := strings.ToUpper(strings.Join(strings.Fields(s.Key.Value), "-"))
	if r := []rune(v); len(r) > MaxMasterSKULength {
		v = string(r[:MaxMasterSKULength])
	}
	return v
}

// Name proposes a display name from the first member
func (s *Suggestion) Name() string {
	if len(s.Products) == 0 {
		return ""
	}
	return s.Products[0].Name
}

// Members converts the suggestion into mapping members in group order
func (s *Suggestion) Members() []MappingMember {
	out := make([]MappingMember, len(s.Products))
	for i, p := range s.Products {
		out[i] = MappingMember{ProductID: p.ProductID, StoreID: p.StoreID, SKU: p.SKU}
	}
	return out
}

// HasStore reports whether any member belongs to the store
func (s *Suggestion) HasStore(storeID uuid.UUID) bool {
	for _, p := range s.Products {
		if p.StoreID == storeID {
			return true
		}
	}
	return false
}

// SuggestionOptions tune BuildSuggestions
type SuggestionOptions struct {
	// Dismissed holds suggestion keys to drop
	Dismissed map[string]struct{}
	// StoreID keeps only groups that include this store
	StoreID *uuid.UUID
	// Chain overrides the default group key rules
	Chain GroupKeyChain
}

// BuildSuggestions groups unmapped products by key, keeps groups spanning at
// least two stores that are not dismissed, and sorts them by descending store
// count. Ties keep the order in which groups were first seen.
func BuildSuggestions(products []catalog.Product, opts SuggestionOptions) []Suggestion {
	chain := opts.Chain
	if len(chain) == 0 {
		chain = DefaultGroupKeyChain()
	}

	order := make([]string, 0)
	groups := make(map[string]*Suggestion)
	stores := make(map[string]map[uuid.UUID]struct{})

	for i := range products {
		p := &products[i]
		key, ok := chain.KeyFor(p)
		if !ok {
			continue
		}
		k := key.String()
		g, exists := groups[k]
		if !exists {
			g = &Suggestion{Key: key}
			groups[k] = g
			stores[k] = make(map[uuid.UUID]struct{})
			order = append(order, k)
		}
		stock := p.EffectiveStock()
		if len(g.Products) == 0 {
			g.RealStock = stock
		}
		g.Products = append(g.Products, SuggestionProduct{
			ProductID:      p.ID,
			StoreID:        p.StoreID,
			Name:           p.Name,
			SKU:            p.SKU,
			EffectiveStock: stock,
		})
		g.TotalStock += stock
		stores[k][p.StoreID] = struct{}{}
	}

	out := make([]Suggestion, 0, len(order))
	for _, k := range order {
		g := groups[k]
		g.StoreCount = len(stores[k])
		if g.StoreCount < 2 {
			continue
		}
		if _, dismissed := opts.Dismissed[k]; dismissed {
			continue
		}
		if opts.StoreID != nil && !g.HasStore(*opts.StoreID) {
			continue
		}
		out = append(out, *g)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StoreCount > out[j].StoreCount
	})
	return out
}

// ---------------------------------------------------------------------------
// Dismissed suggestions
// ---------------------------------------------------------------------------

// DismissedSuggestionRepository persists suggestion keys a company chose to ignore
type DismissedSuggestionRepository interface {
	// Keys returns the set of dismissed keys for a company
	Keys(ctx context.Context, companyID uuid.UUID) (map[string]struct{}, error)

	// Dismiss inserts the key; an existing key is a no-op
	Dismiss(ctx context.Context, companyID uuid.UUID, key string) error

	// Restore deletes the key; a missing key is a no-op
	Restore(ctx context.Context, companyID uuid.UUID, key string) error
}
