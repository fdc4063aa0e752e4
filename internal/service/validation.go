package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	adminPhonePattern = regexp.MustCompile(`^\(\d{2}\) \d{4,5}-\d{4}$`)
	hexColorPattern   = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// CheckoutInput is a storefront order.
type CheckoutInput struct {
	CustomerName    string                    `json:"customerName" validate:"min=3"`
	Email           string                    `json:"email" validate:"required,email"`
	Phone           string                    `json:"phone" validate:"min=10,max=15"`
	DeliveryAddress string                    `json:"deliveryAddress" validate:"min=10"`
	Lines           []domain.OrderLineRequest `json:"items" validate:"min=1,dive"`
}

// AdminOrderInput is an order typed in by staff; the phone must carry the
// (99) 9999-9999 or (99) 99999-9999 mask.
type AdminOrderInput struct {
	CustomerName    string                    `json:"customerName" validate:"min=3"`
	Phone           string                    `json:"phone" validate:"admin_phone"`
	DeliveryAddress string                    `json:"deliveryAddress" validate:"min=5"`
	Lines           []domain.OrderLineRequest `json:"items" validate:"min=1,dive"`
}

type CategoryInput struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"omitempty,hex_color"`
}

type ProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	CategoryID  string          `json:"category_id" validate:"required"`
	PhotoRef    string          `json:"photo"`
}

type BannerInput struct {
	Title    string `json:"title" validate:"required"`
	Subtitle string `json:"subtitle"`
	ImageURL string `json:"image_url" validate:"required"`
	Link     string `json:"link"`
	Active   *bool  `json:"active"`
	Position int    `json:"position"`
}

// messages maps "Field.tag" to the text shown to the user. %s receives the
// tag parameter.
var messages = map[string]string{
	"CustomerName.min":    "customer name must have at least %s characters",
	"Email.required":      "invalid email",
	"Email.email":         "invalid email",
	"Phone.min":           "phone must have at least %s digits",
	"Phone.max":           "phone must have at most %s digits",
	"Phone.admin_phone":   "invalid phone",
	"DeliveryAddress.min": "address must have at least %s characters",
	"Lines.min":           "add at least one item to the order",
	"ProductID.required":  "every item needs a product",
	"Quantity.gte":        "item quantity must be at least %s",
	"Name.required":       "name is required",
	"Color.hex_color":     "invalid color, use the #RRGGBB format",
	"Price.gt":            "price must be greater than zero",
	"CategoryID.required": "category is required",
	"Title.required":      "title is required",
	"ImageURL.required":   "image URL is required",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("admin_phone", func(fl validator.FieldLevel) bool {
		return adminPhonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("hex_color", func(fl validator.FieldLevel) bool {
		return hexColorPattern.MatchString(fl.Field().String())
	})
	return v
}

// firstViolation validates in and returns the message of the first failing
// rule in field order, or "" when the input is valid.
func firstViolation(v *validator.Validate, in any) string {
	err := v.Struct(in)
	if err == nil {
		return ""
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err.Error()
	}

	fe := errs[0]
	tmpl, ok := messages[fe.StructField()+"."+fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
	}
	if !strings.Contains(tmpl, "%s") {
		return tmpl
	}
	return fmt.Sprintf(tmpl, fe.Param())
}

func (in *CheckoutInput) normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	trimLines(in.Lines)
}

func (in *AdminOrderInput) normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	trimLines(in.Lines)
}

func (in *CategoryInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.TrimSpace(in.Color)
	if in.Color == "" {
		in.Color = domain.DefaultCategoryColor
	}
}

func (in *ProductInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	in.PhotoRef = strings.TrimSpace(in.PhotoRef)
}

func (in *BannerInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Subtitle = strings.TrimSpace(in.Subtitle)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Link = strings.TrimSpace(in.Link)
}

func trimLines(lines []domain.OrderLineRequest) {
	for i := range lines {
		lines[i].ProductID = strings.TrimSpace(lines[i].ProductID)
	}
}
