package app

import "storefront/internal/domain"

// Command is a cart transition. Exactly one of the concrete types below.
type Command interface {
	isCommand()
}

// AddItem adds Quantity of Product, merging into an existing line.
type AddItem struct {
	Product  domain.Product
	Quantity int
}

// RemoveItem drops the line for ProductID.
type RemoveItem struct {
	ProductID string
}

// SetQuantity sets the quantity of the line for ProductID.
// A quantity of zero or less removes the line.
type SetQuantity struct {
	ProductID string
	Quantity  int
}

// ClearItems empties the cart.
type ClearItems struct{}

// LoadItems replaces all lines.
type LoadItems struct {
	Lines []domain.CartLine
}

func (AddItem) isCommand()     {}
func (RemoveItem) isCommand()  {}
func (SetQuantity) isCommand() {}
func (ClearItems) isCommand()  {}
func (LoadItems) isCommand()   {}

// Reduce applies cmd to state and returns the new state. It never mutates
// state.Lines in place, and it is the only place Total and ItemCount are
// computed.
func Reduce(state domain.CartState, cmd Command) domain.CartState {
	switch c := cmd.(type) {
	case AddItem:
		lines := cloneLines(state.Lines)
		if i := indexOf(lines, c.Product.ID); i >= 0 {
			lines[i].Quantity += c.Quantity
		} else {
			lines = append(lines, domain.CartLine{Product: c.Product, Quantity: c.Quantity})
		}
		return derive(lines)

	case RemoveItem:
		lines := make([]domain.CartLine, 0, len(state.Lines))
		for _, l := range state.Lines {
			if l.Product.ID != c.ProductID {
				lines = append(lines, l)
			}
		}
		return derive(lines)

	case SetQuantity:
		if c.Quantity <= 0 {
			return Reduce(state, RemoveItem{ProductID: c.ProductID})
		}
		lines := cloneLines(state.Lines)
		if i := indexOf(lines, c.ProductID); i >= 0 {
			lines[i].Quantity = c.Quantity
		}
		return derive(lines)

	case ClearItems:
		return derive(nil)

	case LoadItems:
		return derive(normalize(c.Lines))
	}
	return state
}

func derive(lines []domain.CartLine) domain.CartState {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	s := domain.CartState{Lines: lines}
	for _, l := range lines {
		s.Total += l.Product.Price * float64(l.Quantity)
		s.ItemCount += l.Quantity
	}
	return s
}

// normalize enforces one line per product id and positive quantities on
// externally supplied lines, such as a persisted cart.
func normalize(in []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(in))
	for _, l := range in {
		if l.Quantity <= 0 || l.Product.ID == "" {
			continue
		}
		if i := indexOf(out, l.Product.ID); i >= 0 {
			out[i].Quantity += l.Quantity
			continue
		}
		out = append(out, l)
	}
	return out
}

func indexOf(lines []domain.CartLine, productID string) int {
	for i, l := range lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}
