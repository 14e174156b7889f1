package billing

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// Golden quotes pin the full rendered output of the engine, rounding
// behavior included. Regenerate with: go test ./internal/billing -update
func assertGoldenQuote(t *testing.T, name string, q Quote) {
	t.Helper()
	data, err := json.MarshalIndent(q.Fixed(), "", "  ")
	require.NoError(t, err)
	g := goldie.New(t)
	g.Assert(t, name, data)
}

func TestGolden_InclusiveBasic(t *testing.T) {
	q := CalculateBill([]LineItem{{Price: 188, Quantity: 1}}, 12, 5, TaxInclusive)
	assertGoldenQuote(t, "inclusive_basic", q)
}

func TestGolden_ExclusiveBasic(t *testing.T) {
	q := CalculateBill([]LineItem{{Price: 188, Quantity: 1}}, 12, 5, TaxExclusive)
	assertGoldenQuote(t, "exclusive_basic", q)
}

func TestGolden_OddCentSplit(t *testing.T) {
	q := CalculateBill([]LineItem{{Price: 167.4, Quantity: 1}}, 0, 5, TaxExclusive)
	assertGoldenQuote(t, "odd_cent_split", q)
}
