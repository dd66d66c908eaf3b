package admin

import (
	"strings"

	"github.com/angelmondragon/storefront/pkg/types"
)

// FormMode tells whether a product form creates or edits.
type FormMode string

const (
	FormModeCreate FormMode = "create"
	FormModeEdit   FormMode = "edit"
)

// ProductForm is the product dialog. It is in edit mode exactly when an existing
// product is attached.
type ProductForm struct {
	Input     types.ProductInput
	productID string
}

func NewProductForm() *ProductForm {
	return &ProductForm{}
}

// EditProductForm opens the dialog prefilled with product.
func EditProductForm(product types.Product) *ProductForm {
	return &ProductForm{
		Input:     types.InputFrom(product),
		productID: strings.TrimSpace(product.ID),
	}
}

func (f *ProductForm) Mode() FormMode {
	if f.productID == "" {
		return FormModeCreate
	}
	return FormModeEdit
}

func (f *ProductForm) ProductID() string {
	return f.productID
}

// Reset clears the form back to create mode.
func (f *ProductForm) Reset() {
	f.Input = types.ProductInput{}
	f.productID = ""
}
