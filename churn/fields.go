// Package churn holds the customer form: its widgets, the request they
// produce, and the outcome text shown after a prediction.
package churn

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Column names as the model sees them.
const (
	ColGender           = "Gender"
	ColSeniorCitizen    = "Senior Citizen"
	ColPartner          = "Partner"
	ColDependents       = "Dependents"
	ColPhoneService     = "Phone Service"
	ColMultipleLines    = "Multiple Lines"
	ColInternetService  = "Internet Service"
	ColOnlineSecurity   = "Online Security"
	ColOnlineBackup     = "Online Backup"
	ColDeviceProtection = "Device Protection"
	ColTechSupport      = "Tech Support"
	ColStreamingTV      = "Streaming TV"
	ColStreamingMovies  = "Streaming Movies"
	ColContract         = "Contract"
	ColPaperlessBilling = "Paperless Billing"
	ColPaymentMethod    = "Payment Method"
	ColTenureMonths     = "Tenure Months"
	ColMonthlyCharges   = "Monthly Charges"
	ColTotalCharges     = "Total Charges"
	ColCLTV             = "CLTV"
	ColChurnScore       = "Churn Score"

	ColCountry    = "Country"
	ColState      = "State"
	ColCity       = "City"
	ColChurnLabel = "Churn Label"
)

// Values the form never asks for but every record carries.
const (
	DefaultCountry    = "United States"
	DefaultState      = "California"
	DefaultCity       = "Los Angeles"
	DefaultChurnLabel = "No"
)

// WidgetKind is the input control used for a field.
type WidgetKind string

const (
	WidgetSelect WidgetKind = "select"
	WidgetInt    WidgetKind = "int"
	WidgetFloat  WidgetKind = "float"
)

// Field is one labeled input on the form.
type Field struct {
	Column  string     `json:"column"`
	Label   string     `json:"label"`
	Kind    WidgetKind `json:"kind"`
	Options []string   `json:"options,omitempty"`
	Min     float64    `json:"min"`
	Max     float64    `json:"max"`
	Default float64    `json:"default"`
}

// DefaultValue is the initial widget value as submitted by a browser.
func (f Field) DefaultValue() string {
	if f.Kind == WidgetSelect {
		return f.Options[0]
	}
	return f.FormatNumber(f.Default)
}

// FormatNumber renders v the way the widget displays it.
func (f Field) FormatNumber(v float64) string {
	if f.Kind == WidgetInt {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Step is the HTML step attribute of a numeric widget.
func (f Field) Step() string {
	if f.Kind == WidgetInt {
		return "1"
	}
	return "0.01"
}

// RangeHint renders the allowed range, e.g. "0 to 10,000".
func (f Field) RangeHint() string {
	if f.Kind == WidgetSelect {
		return ""
	}
	return printer.Sprintf("%.0f to %.0f", f.Min, f.Max)
}

// Section groups fields under a subheading.
type Section struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

var printer = message.NewPrinter(language.AmericanEnglish)

var (
	yesNo          = []string{"Yes", "No"}
	internetAddOns = []string{"Yes", "No", "No internet service"}
)

func selectField(column, label string, options ...string) Field {
	return Field{Column: column, Label: label, Kind: WidgetSelect, Options: options}
}

func numberField(column, label string, kind WidgetKind, lo, hi, def float64) Field {
	return Field{Column: column, Label: label, Kind: kind, Min: lo, Max: hi, Default: def}
}

// Layout returns the form as two columns of sections, left then right.
func Layout() [2][]Section {
	return [2][]Section{
		{
			{Title: "Customer Demographics", Fields: []Field{
				selectField(ColGender, "Gender", "Male", "Female"),
				selectField(ColSeniorCitizen, "Senior Citizen", yesNo...),
				selectField(ColPartner, "Partner", yesNo...),
				selectField(ColDependents, "Dependents", yesNo...),
			}},
			{Title: "Service Information", Fields: []Field{
				selectField(ColPhoneService, "Phone Service", yesNo...),
				selectField(ColMultipleLines, "Multiple Lines", "Yes", "No", "No phone service"),
				selectField(ColInternetService, "Internet Service", "DSL", "Fiber optic", "No"),
			}},
			{Title: "Online Services", Fields: []Field{
				selectField(ColOnlineSecurity, "Online Security", internetAddOns...),
				selectField(ColOnlineBackup, "Online Backup", internetAddOns...),
				selectField(ColDeviceProtection, "Device Protection", internetAddOns...),
				selectField(ColTechSupport, "Tech Support", internetAddOns...),
			}},
		},
		{
			{Title: "Streaming Services", Fields: []Field{
				selectField(ColStreamingTV, "Streaming TV", internetAddOns...),
				selectField(ColStreamingMovies, "Streaming Movies", internetAddOns...),
			}},
			{Title: "Contract and Billing", Fields: []Field{
				selectField(ColContract, "Contract", "Month-to-month", "One year", "Two year"),
				selectField(ColPaperlessBilling, "Paperless Billing", yesNo...),
				selectField(ColPaymentMethod, "Payment Method",
					"Electronic check",
					"Mailed check",
					"Bank transfer (automatic)",
					"Credit card (automatic)",
				),
			}},
			{Title: "Charges and Tenure", Fields: []Field{
				numberField(ColTenureMonths, "Tenure (Months)", WidgetInt, 0, 72, 1),
				numberField(ColMonthlyCharges, "Monthly Charges ($)", WidgetFloat, 0, 200, 50),
				numberField(ColTotalCharges, "Total Charges ($)", WidgetFloat, 0, 10000, 1000),
				numberField(ColCLTV, "Customer Lifetime Value", WidgetInt, 0, 10000, 3000),
				numberField(ColChurnScore, "Churn Score", WidgetInt, 0, 100, 50),
			}},
		},
	}
}

// Fields returns every widget in display order.
func Fields() []Field {
	var fields []Field
	for _, column := range Layout() {
		for _, section := range column {
			fields = append(fields, section.Fields...)
		}
	}
	return fields
}

// FieldByColumn looks a widget up by its column name.
func FieldByColumn(column string) (Field, bool) {
	for _, f := range Fields() {
		if f.Column == column {
			return f, true
		}
	}
	return Field{}, false
}
