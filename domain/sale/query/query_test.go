package query

import (
	"math"
	"testing"
	"time"

	"sales-service/domain/sale"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	id        int64
	number    string
	customer  string
	total     int64
	cancelled bool
	day       int
}

var fixtures = []fixture{
	{1, "SALE-001", "John Doe", 1000, false, 1},
	{2, "SALE-002", "Jane Smith", 2000, false, 2},
	{3, "SALE-003", "John Wilson", 1500, true, 3},
	{4, "SALE-004", "Mary Johnson", 3000, false, 4},
	{5, "SALE-005", "John Brown", 2500, false, 5},
}

func testSales(t *testing.T) []*sale.Sale {
	t.Helper()

	sales := make([]*sale.Sale, 0, len(fixtures))
	for _, f := range fixtures {
		item := sale.RebuildItemFromDTO(sale.ItemReconstructionDTO{
			ID:          f.id * 10,
			ProductID:   f.id,
			ProductName: "Product",
			Quantity:    1,
			UnitPrice:   decimal.NewFromInt(f.total),
		})
		sales = append(sales, sale.RebuildFromDTO(sale.ReconstructionDTO{
			ID:           f.id,
			SaleNumber:   f.number,
			SaleDate:     time.Date(2024, 1, f.day, 0, 0, 0, 0, time.UTC),
			CustomerID:   f.id,
			CustomerName: f.customer,
			BranchID:     1,
			BranchName:   "Main",
			Items:        []sale.SaleItem{item},
			Cancelled:    f.cancelled,
		}))
	}
	return sales
}

func totals(sales []*sale.Sale) []int64 {
	out := make([]int64, len(sales))
	for i, s := range sales {
		out[i] = s.TotalAmount().IntPart()
	}
	return out
}

func ids(sales []*sale.Sale) []int64 {
	out := make([]int64, len(sales))
	for i, s := range sales {
		out[i] = s.ID()
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   []int64
	}{
		{"no filter", "", []int64{1000, 2000, 1500, 3000, 2500}},
		{"not cancelled", "cancelled=false", []int64{1000, 2000, 3000, 2500}},
		{"cancelled", "cancelled=true", []int64{1500}},
		{"cancelled is case-insensitive", "cancelled=TRUE", []int64{1500}},
		{"greater than and not cancelled", "totalamount>1000&cancelled=false", []int64{2000, 3000, 2500}},
		{"inclusive range", "totalamount=1000-2000", []int64{1000, 2000, 1500}},
		{"exact amount", "totalamount=3000", []int64{3000}},
		{"exact amount with decimals", "totalamount=3000.00", []int64{3000}},
		{"greater than after equals", "totalamount=>2000", []int64{3000, 2500}},
		{"less than", "totalamount<2000", []int64{1000, 1500}},
		{"customer exact", "customername=john doe", []int64{1000}},
		{"customer prefix", "customername=John*", []int64{1000, 1500, 2500}},
		{"customer suffix", "customername=*son", []int64{1500, 3000}},
		{"customer contains", "customername=*OH*", []int64{1000, 1500, 3000, 2500}},
		{"sale number prefix", "salenumber=sale-00*", []int64{1000, 2000, 1500, 3000, 2500}},
		{"sale number exact", "salenumber=SALE-004", []int64{3000}},
		{"field names are case-insensitive", "CustomerName=Jane*", []int64{2000}},
		{"whitespace around clauses", " cancelled = false & totalamount > 2000 ", []int64{3000, 2500}},
		{"unknown field is ignored", "foo=bar", []int64{1000, 2000, 1500, 3000, 2500}},
		{"clause without operator is ignored", "cancelled", []int64{1000, 2000, 1500, 3000, 2500}},
		{"bad boolean is ignored", "cancelled=maybe", []int64{1000, 2000, 1500, 3000, 2500}},
		{"bad amount is ignored", "totalamount=abc&cancelled=true", []int64{1500}},
		{"bad range is ignored", "totalamount=1-x", []int64{1000, 2000, 1500, 3000, 2500}},
		{"comparison on text field is ignored", "customername>a", []int64{1000, 2000, 1500, 3000, 2500}},
		{"empty clauses are ignored", "&&cancelled=true&", []int64{1500}},
		{"reversed range matches nothing", "totalamount=2000-1000", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFilter(tt.filter).Apply(testSales(t))
			assert.Equal(t, tt.want, totals(got))
		})
	}
}

func TestParseFilter_CountsRecognizedClauses(t *testing.T) {
	assert.Equal(t, 0, ParseFilter("").Len())
	assert.Equal(t, 0, ParseFilter("foo=bar&baz").Len())
	assert.Equal(t, 2, ParseFilter("foo=bar&cancelled=false&totalamount>1").Len())
}

func TestOrdering(t *testing.T) {
	tests := []struct {
		name  string
		order string
		want  []int64
	}{
		{"default is ascending id", "", []int64{1, 2, 3, 4, 5}},
		{"total descending", "totalamount desc", []int64{4, 5, 2, 3, 1}},
		{"total ascending by default direction", "totalamount", []int64{1, 3, 2, 5, 4}},
		{"explicit asc", "totalamount asc", []int64{1, 3, 2, 5, 4}},
		{"date descending", "date desc", []int64{5, 4, 3, 2, 1}},
		{"customer name", "customername", []int64{2, 5, 1, 3, 4}},
		{"direction is case-insensitive", "ID DESC", []int64{5, 4, 3, 2, 1}},
		{"unknown fields only fall back to id", "foo desc, bar", []int64{1, 2, 3, 4, 5}},
		{"unknown field is skipped", "foo, totalamount desc", []int64{4, 5, 2, 3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sales := testSales(t)
			ParseOrdering(tt.order).Sort(sales)
			assert.Equal(t, tt.want, ids(sales))
		})
	}
}

func TestOrdering_MultiKeyBreaksTies(t *testing.T) {
	sales := testSales(t)
	// Give two sales the same customer so the second key decides.
	sales[0] = renamed(sales[0], "Alex")
	sales[3] = renamed(sales[3], "Alex")

	ParseOrdering("customername, totalamount desc").Sort(sales)

	assert.Equal(t, []int64{4, 1, 2, 5, 3}, ids(sales))
}

func TestOrdering_IsStable(t *testing.T) {
	sales := testSales(t)
	for i := range sales {
		sales[i] = renamed(sales[i], "Same")
	}

	ParseOrdering("customername desc").Sort(sales)

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(sales))
}

func TestParseOrdering(t *testing.T) {
	assert.Equal(t, DefaultOrdering, ParseOrdering(""))
	assert.Equal(t, Ordering{
		{Field: SortByDate, Descending: true},
		{Field: SortByCustomerName},
	}, ParseOrdering("date desc, customername asc"))
	assert.Equal(t, Ordering{{Field: SortByTotalAmount}}, ParseOrdering("totalamount sideways"))
}

func TestPaginate(t *testing.T) {
	sales := testSales(t)

	tests := []struct {
		name       string
		page, size int
		want       []int64
	}{
		{"first page", 1, 2, []int64{1, 2}},
		{"second page", 2, 2, []int64{3, 4}},
		{"partial last page", 3, 2, []int64{5}},
		{"past the end", 4, 2, []int64{}},
		{"size larger than input", 1, 50, []int64{1, 2, 3, 4, 5}},
		{"page zero is empty", 0, 2, []int64{}},
		{"negative page is empty", -1, 2, []int64{}},
		{"size zero is empty", 1, 0, []int64{}},
		{"negative size is empty", 1, -5, []int64{}},
		{"huge page does not wrap around", (1 << 61) + 1, 8, []int64{}},
		{"huge size on second page", 2, math.MaxInt, []int64{}},
		{"max page", math.MaxInt, 1, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Paginate(sales, tt.page, tt.size)))
		})
	}

	assert.Empty(t, Paginate(nil, 1, 10))
}

func TestResult_TotalPages(t *testing.T) {
	tests := []struct {
		name        string
		total, size int
		want        int
	}{
		{"exact fit", 4, 2, 2},
		{"partial last page", 5, 2, 3},
		{"no items", 0, 10, 0},
		{"zero size", 5, 0, 0},
		{"size near max int", 5, math.MaxInt, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Result{TotalItems: tt.total, Size: tt.size}.TotalPages())
		})
	}
}

func TestExecute(t *testing.T) {
	sales := testSales(t)

	result := Execute(sales, Params{
		Filter: "cancelled=false",
		Order:  "totalamount desc",
		Page:   2,
		Size:   2,
	})

	assert.Equal(t, []int64{2000, 1000}, totals(result.Items))
	assert.Equal(t, 4, result.TotalItems)
	assert.Equal(t, 2, result.TotalPages())
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(sales), "input order is untouched")
}

func TestExecute_PaginatesAfterOrdering(t *testing.T) {
	sales := testSales(t)
	// Shuffle so ordering has work to do.
	sales[0], sales[4] = sales[4], sales[0]

	result := Execute(sales, Params{Page: 2, Size: 2})

	require.Len(t, result.Items, 2)
	assert.Equal(t, []int64{3, 4}, ids(result.Items))
}

func renamed(s *sale.Sale, customer string) *sale.Sale {
	return sale.RebuildFromDTO(sale.ReconstructionDTO{
		ID:           s.ID(),
		SaleNumber:   s.SaleNumber(),
		SaleDate:     s.SaleDate(),
		CustomerID:   s.CustomerID(),
		CustomerName: customer,
		BranchID:     s.BranchID(),
		BranchName:   s.BranchName(),
		Items:        s.Items(),
		Cancelled:    s.IsCancelled(),
	})
}
