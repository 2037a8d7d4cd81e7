package churn

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"churnpredict/ml"
)

// Request is one form submission. The JSON names double as model columns.
type Request struct {
	Gender           string  `json:"Gender" validate:"oneof=Male Female"`
	SeniorCitizen    string  `json:"Senior Citizen" validate:"oneof=Yes No"`
	Partner          string  `json:"Partner" validate:"oneof=Yes No"`
	Dependents       string  `json:"Dependents" validate:"oneof=Yes No"`
	PhoneService     string  `json:"Phone Service" validate:"oneof=Yes No"`
	MultipleLines    string  `json:"Multiple Lines" validate:"oneof=Yes No 'No phone service'"`
	InternetService  string  `json:"Internet Service" validate:"oneof=DSL 'Fiber optic' No"`
	OnlineSecurity   string  `json:"Online Security" validate:"oneof=Yes No 'No internet service'"`
	OnlineBackup     string  `json:"Online Backup" validate:"oneof=Yes No 'No internet service'"`
	DeviceProtection string  `json:"Device Protection" validate:"oneof=Yes No 'No internet service'"`
	TechSupport      string  `json:"Tech Support" validate:"oneof=Yes No 'No internet service'"`
	StreamingTV      string  `json:"Streaming TV" validate:"oneof=Yes No 'No internet service'"`
	StreamingMovies  string  `json:"Streaming Movies" validate:"oneof=Yes No 'No internet service'"`
	Contract         string  `json:"Contract" validate:"oneof=Month-to-month 'One year' 'Two year'"`
	PaperlessBilling string  `json:"Paperless Billing" validate:"oneof=Yes No"`
	PaymentMethod    string  `json:"Payment Method" validate:"oneof='Electronic check' 'Mailed check' 'Bank transfer (automatic)' 'Credit card (automatic)'"`
	TenureMonths     int     `json:"Tenure Months" validate:"min=0,max=72"`
	MonthlyCharges   float64 `json:"Monthly Charges" validate:"min=0,max=200"`
	TotalCharges     float64 `json:"Total Charges" validate:"min=0,max=10000"`
	CLTV             int     `json:"CLTV" validate:"min=0,max=10000"`
	ChurnScore       int     `json:"Churn Score" validate:"min=0,max=100"`
}

// FieldError is a submitted value that the widget could not hold.
type FieldError struct {
	Column string `json:"column"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Column, e.Reason)
}

// FieldErrors collects every rejected column of one submission.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return "invalid form values: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	return v
}

// DefaultRequest is the form with every widget left untouched.
func DefaultRequest() Request {
	var r Request
	for _, f := range Fields() {
		// Defaults come from the widget table and always fit it.
		_ = r.set(f, f.DefaultValue())
	}
	return r
}

// ParseForm reads a browser submission. Missing keys keep their widget
// default; present keys must fit the widget.
func ParseForm(values url.Values) (Request, error) {
	r := DefaultRequest()
	var errs FieldErrors
	for _, f := range Fields() {
		if !values.Has(f.Column) {
			continue
		}
		if err := r.set(f, strings.TrimSpace(values.Get(f.Column))); err != nil {
			errs = append(errs, FieldError{Column: f.Column, Reason: err.Error()})
		}
	}
	if err := r.Validate(); err != nil {
		var invalid FieldErrors
		if !errors.As(err, &invalid) {
			return r, err
		}
		errs = append(errs, invalid...)
	}
	if len(errs) > 0 {
		return r, errs
	}
	return r, nil
}

// Validate checks every value against its widget constraints.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, FieldError{Column: fe.Field(), Reason: describe(fe)})
	}
	return errs
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%q is not one of the offered options", fe.Value())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

func (r *Request) set(f Field, raw string) error {
	switch f.Kind {
	case WidgetInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("must be a whole number")
		}
		return r.setInt(f.Column, n)
	case WidgetFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("must be a number")
		}
		return r.setFloat(f.Column, v)
	default:
		return r.setString(f.Column, raw)
	}
}

func (r *Request) setString(column, v string) error {
	switch column {
	case ColGender:
		r.Gender = v
	case ColSeniorCitizen:
		r.SeniorCitizen = v
	case ColPartner:
		r.Partner = v
	case ColDependents:
		r.Dependents = v
	case ColPhoneService:
		r.PhoneService = v
	case ColMultipleLines:
		r.MultipleLines = v
	case ColInternetService:
		r.InternetService = v
	case ColOnlineSecurity:
		r.OnlineSecurity = v
	case ColOnlineBackup:
		r.OnlineBackup = v
	case ColDeviceProtection:
		r.DeviceProtection = v
	case ColTechSupport:
		r.TechSupport = v
	case ColStreamingTV:
		r.StreamingTV = v
	case ColStreamingMovies:
		r.StreamingMovies = v
	case ColContract:
		r.Contract = v
	case ColPaperlessBilling:
		r.PaperlessBilling = v
	case ColPaymentMethod:
		r.PaymentMethod = v
	default:
		return fmt.Errorf("unknown text column %q", column)
	}
	return nil
}

func (r *Request) setInt(column string, v int) error {
	switch column {
	case ColTenureMonths:
		r.TenureMonths = v
	case ColCLTV:
		r.CLTV = v
	case ColChurnScore:
		r.ChurnScore = v
	default:
		return fmt.Errorf("unknown integer column %q", column)
	}
	return nil
}

func (r *Request) setFloat(column string, v float64) error {
	switch column {
	case ColMonthlyCharges:
		r.MonthlyCharges = v
	case ColTotalCharges:
		r.TotalCharges = v
	default:
		return fmt.Errorf("unknown decimal column %q", column)
	}
	return nil
}

// Record builds the single-row model input: the 21 form values plus the
// four constant columns.
func (r Request) Record() ml.Record {
	return ml.Record{
		ColGender:           r.Gender,
		ColSeniorCitizen:    r.SeniorCitizen,
		ColPartner:          r.Partner,
		ColDependents:       r.Dependents,
		ColPhoneService:     r.PhoneService,
		ColMultipleLines:    r.MultipleLines,
		ColInternetService:  r.InternetService,
		ColOnlineSecurity:   r.OnlineSecurity,
		ColOnlineBackup:     r.OnlineBackup,
		ColDeviceProtection: r.DeviceProtection,
		ColTechSupport:      r.TechSupport,
		ColStreamingTV:      r.StreamingTV,
		ColStreamingMovies:  r.StreamingMovies,
		ColContract:         r.Contract,
		ColPaperlessBilling: r.PaperlessBilling,
		ColPaymentMethod:    r.PaymentMethod,
		ColTenureMonths:     r.TenureMonths,
		ColMonthlyCharges:   r.MonthlyCharges,
		ColTotalCharges:     r.TotalCharges,
		ColCLTV:             r.CLTV,
		ColChurnScore:       r.ChurnScore,
		ColCountry:          DefaultCountry,
		ColState:            DefaultState,
		ColCity:             DefaultCity,
		ColChurnLabel:       DefaultChurnLabel,
	}
}

// Values renders the request as widget values, keyed by column.
func (r Request) Values() map[string]string {
	record := r.Record()
	values := make(map[string]string, len(record))
	for _, f := range Fields() {
		switch v := record[f.Column].(type) {
		case string:
			values[f.Column] = v
		case int:
			values[f.Column] = f.FormatNumber(float64(v))
		case float64:
			values[f.Column] = f.FormatNumber(v)
		}
	}
	return values
}

// Key is a stable identity for the request's record, used for memoizing
// predictions.
func (r Request) Key() string {
	record := r.Record()
	var b strings.Builder
	for _, f := range Fields() {
		b.WriteString(f.Column)
		b.WriteByte('=')
		b.WriteString(fmt.Sprint(record[f.Column]))
		b.WriteByte(';')
	}
	return b.String()
}
