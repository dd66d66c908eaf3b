package cart

import pkgerrors "github.com/angelmondragon/storefront/pkg/errors"

// Operation names a cart action for user-facing notices.
type Operation string

const (
	OperationAdd    Operation = "add"
	OperationUpdate Operation = "update"
	OperationRemove Operation = "remove"
	OperationLoad   Operation = "load"
)

// Notice converts the outcome of a cart action into the transient message shown to the
// shopper. A nil error yields the success text, which may be empty.
func Notice(op Operation, err error) string {
	if err == nil {
		switch op {
		case OperationAdd:
			return "Added to cart!"
		case OperationRemove:
			return "Item removed from cart"
		}
		return ""
	}
	if pkgerrors.Is(err, pkgerrors.CodeUnauthenticated) {
		if op == OperationAdd {
			return "Please login to add items to cart"
		}
		return "Please log in to continue"
	}
	switch op {
	case OperationAdd:
		return "Failed to add to cart"
	case OperationUpdate:
		return "Failed to update cart"
	case OperationRemove:
		return "Failed to remove item"
	default:
		return "Failed to load cart"
	}
}
