package domain

const (
	DefaultPage = 1
	MaxPageSize = 200
)

type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into the accepted range, falling back to
// defaultSize when no size was requested.
func (p Page) Normalize(defaultSize int) Page {
	if p.Number < 1 {
		p.Number = DefaultPage
	}
	if p.Size < 1 {
		p.Size = defaultSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}
