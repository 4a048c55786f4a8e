package query

import "sales-service/domain/sale"

// Defaults used when a list request omits paging.
const (
	DefaultPage = 1
	DefaultSize = 10
)

// Params is a list request.
type Params struct {
	Filter string
	Order  string
	Page   int
	Size   int
}

// Result is one page of sales plus the number of sales that passed the filter.
type Result struct {
	Items      []*sale.Sale
	TotalItems int
	Page       int
	Size       int
}

// TotalPages is the number of pages of Size needed for TotalItems.
func (r Result) TotalPages() int {
	if r.Size <= 0 || r.TotalItems <= 0 {
		return 0
	}
	return (r.TotalItems-1)/r.Size + 1
}

// Execute runs filter, then order, then paginate over sales. The input slice is
// not modified.
func Execute(sales []*sale.Sale, p Params) Result {
	filtered := ParseFilter(p.Filter).Apply(sales)
	ParseOrdering(p.Order).Sort(filtered)

	return Result{
		Items:      Paginate(filtered, p.Page, p.Size),
		TotalItems: len(filtered),
		Page:       p.Page,
		Size:       p.Size,
	}
}

// Paginate skips (page-1)*size sales and takes up to size. A page below 1 or a
// size below 1 yields an empty page.
func Paginate(sales []*sale.Sale, page, size int) []*sale.Sale {
	if page < 1 || size < 1 {
		return []*sale.Sale{}
	}

	// 先比较页号再相乘，避免 (page-1)*size 溢出
	if len(sales) == 0 || page-1 > (len(sales)-1)/size {
		return []*sale.Sale{}
	}
	offset := (page - 1) * size
	end := min(offset+size, len(sales))
	return sales[offset:end]
}
