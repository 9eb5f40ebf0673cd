package cart

// Intent is a requested change to a cart.
type Intent interface {
	isIntent()
}

type Add struct {
	Line Line
}

type ChangeQuantity struct {
	ID    string
	Delta int
}

type Remove struct {
	ID string
}

type Clear struct{}

func (Add) isIntent()            {}
func (ChangeQuantity) isIntent() {}
func (Remove) isIntent()         {}
func (Clear) isIntent()          {}

// Apply returns the cart that results from intent. The input is not modified.
func Apply(c Cart, intent Intent) (Cart, error) {
	next := c.Clone()
	var err error

	switch in := intent.(type) {
	case Add:
		err = next.Add(in.Line)
	case ChangeQuantity:
		err = next.SetQuantity(in.ID, in.Delta)
	case Remove:
		err = next.Remove(in.ID)
	case Clear:
		next.Clear()
	default:
		err = ErrInvalidLine
	}

	if err != nil {
		return c, err
	}
	return next, nil
}
