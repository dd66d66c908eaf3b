package admin

import pkgerrors "github.com/angelmondragon/storefront/pkg/errors"

// Operation names an admin action for user-facing notices.
type Operation string

const (
	OperationLoad          Operation = "load"
	OperationCreateProduct Operation = "create_product"
	OperationUpdateProduct Operation = "update_product"
	OperationDeleteProduct Operation = "delete_product"
	OperationOrderStatus   Operation = "order_status"
)

var successNotices = map[Operation]string{
	OperationCreateProduct: "Product created",
	OperationUpdateProduct: "Product updated",
	OperationDeleteProduct: "Product deleted",
	OperationOrderStatus:   "Order status updated",
}

var failureNotices = map[Operation]string{
	OperationLoad:          "Failed to load dashboard data",
	OperationCreateProduct: "Failed to create product",
	OperationUpdateProduct: "Failed to update product",
	OperationDeleteProduct: "Failed to delete product",
	OperationOrderStatus:   "Failed to update order status",
}

// Notice converts the outcome of an admin action into its toast text.
func Notice(op Operation, err error) string {
	if err == nil {
		return successNotices[op]
	}
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeForbidden:
		return "Admin access required"
	case pkgerrors.CodeUnauthenticated:
		return "Please log in to continue"
	}
	return failureNotices[op]
}
