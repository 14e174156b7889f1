package billing

// FixedQuote is a Quote rendered to fixed 2-decimal strings for display
// and serialization. NetPayable is null in exclusive mode.
type FixedQuote struct {
	GrossTotal   string  `json:"gross_total"`
	Discount     string  `json:"discount"`
	TaxableValue string  `json:"taxable_value"`
	NetPayable   *string `json:"net_payable"`
	TaxAmount    string  `json:"tax_amount"`
	TaxPartA     string  `json:"tax_part_a"`
	TaxPartB     string  `json:"tax_part_b"`
	Total        string  `json:"total"`
	TaxRate      string  `json:"tax_rate"`
	TaxMode      string  `json:"tax_mode"`
}

// Fixed renders the quote with every amount at exactly 2 decimal places.
func (q Quote) Fixed() FixedQuote {
	fq := FixedQuote{
		GrossTotal:   q.GrossTotal.StringFixed(2),
		Discount:     q.Discount.StringFixed(2),
		TaxableValue: q.TaxableValue.StringFixed(2),
		TaxAmount:    q.TaxAmount.StringFixed(2),
		TaxPartA:     q.TaxPartA.StringFixed(2),
		TaxPartB:     q.TaxPartB.StringFixed(2),
		Total:        q.Total.StringFixed(2),
		TaxRate:      q.TaxRate.StringFixed(2),
		TaxMode:      string(q.TaxMode),
	}
	if q.NetPayable != nil {
		s := q.NetPayable.StringFixed(2)
		fq.NetPayable = &s
	}
	return fq
}
