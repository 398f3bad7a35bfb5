package view

// Page is one slice of a table.
type Page struct {
	Rows       []Row
	Number     int // 1-based, after clamping
	TotalPages int
	Total      int
}

// Empty reports whether there is nothing to show. Renderers show an
// explicit empty-state row in that case.
func (p Page) Empty() bool {
	return p.Total == 0
}

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// HasPrev reports whether a preceding page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// TotalPages is the page count for n rows, never less than 1.
func TotalPages(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Clamp bounds page to [1, TotalPages(n, size)].
func Clamp(page, n, size int) int {
	total := TotalPages(n, size)
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// Paginate returns the requested page of rows. Out-of-range page numbers
// are clamped rather than rejected.
func Paginate(rows []Row, size, page int) Page {
	if size <= 0 {
		size = len(rows)
	}
	number := Clamp(page, len(rows), size)
	start := (number - 1) * size
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	if start > end {
		start = end
	}
	return Page{
		Rows:       rows[start:end],
		Number:     number,
		TotalPages: TotalPages(len(rows), size),
		Total:      len(rows),
	}
}

// Pager holds the user's page for one table. The page returns to 1
// whenever the query it was chosen under changes.
type Pager struct {
	page  int
	query Query
	set   bool
}

// Page returns the current page for q, resetting to 1 if q differs from
// the query the page was chosen under.
func (p *Pager) Page(q Query) int {
	p.sync(q)
	return p.page
}

// Next advances one page, bounded by total.
func (p *Pager) Next(q Query, total int) {
	p.sync(q)
	if p.page < total {
		p.page++
	}
}

// Prev goes back one page.
func (p *Pager) Prev(q Query) {
	p.sync(q)
	if p.page > 1 {
		p.page--
	}
}

// Clamp pulls the page back into [1, total], e.g. after rows disappear.
func (p *Pager) Clamp(total int) {
	if p.page > total {
		p.page = total
	}
	if p.page < 1 {
		p.page = 1
	}
}

func (p *Pager) sync(q Query) {
	if !p.set || p.query != q {
		p.query = q
		p.page = 1
		p.set = true
	}
}
