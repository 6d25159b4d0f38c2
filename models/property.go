package models

// PropertyRecord is one listing extracted from a detail page. Every field is
// a plain string; a value that could not be found is "".
type PropertyRecord struct {
	Title            string `json:"title" yaml:"title"`
	Description      string `json:"description" yaml:"description"`
	Address          string `json:"address" yaml:"address"`
	AppraisalValue   string `json:"appraisal_value" yaml:"appraisal_value"`
	MinimumSaleValue string `json:"minimum_sale_value" yaml:"minimum_sale_value"`
	PropertyType     string `json:"property_type" yaml:"property_type"`
	Rooms            string `json:"rooms" yaml:"rooms"`
	Parking          string `json:"parking" yaml:"parking"`
	PropertyCode     string `json:"property_code" yaml:"property_code"`
	Registrations    string `json:"registrations" yaml:"registrations"`
	Jurisdiction     string `json:"jurisdiction" yaml:"jurisdiction"`
	TaxRegistration  string `json:"tax_registration" yaml:"tax_registration"`
	TotalArea        string `json:"total_area" yaml:"total_area"`
	PrivateArea      string `json:"private_area" yaml:"private_area"`
	PaymentTerms     string `json:"payment_terms" yaml:"payment_terms"`
	ExpenseRules     string `json:"expense_rules" yaml:"expense_rules"`
	Link             string `json:"link" yaml:"link"`
}

// Field names in output order.
const (
	FieldTitle            = "title"
	FieldDescription      = "description"
	FieldAddress          = "address"
	FieldAppraisalValue   = "appraisal_value"
	FieldMinimumSaleValue = "minimum_sale_value"
	FieldPropertyType     = "property_type"
	FieldRooms            = "rooms"
	FieldParking          = "parking"
	FieldPropertyCode     = "property_code"
	FieldRegistrations    = "registrations"
	FieldJurisdiction     = "jurisdiction"
	FieldTaxRegistration  = "tax_registration"
	FieldTotalArea        = "total_area"
	FieldPrivateArea      = "private_area"
	FieldPaymentTerms     = "payment_terms"
	FieldExpenseRules     = "expense_rules"
	FieldLink             = "link"
)

var fieldNames = []string{
	FieldTitle,
	FieldDescription,
	FieldAddress,
	FieldAppraisalValue,
	FieldMinimumSaleValue,
	FieldPropertyType,
	FieldRooms,
	FieldParking,
	FieldPropertyCode,
	FieldRegistrations,
	FieldJurisdiction,
	FieldTaxRegistration,
	FieldTotalArea,
	FieldPrivateArea,
	FieldPaymentTerms,
	FieldExpenseRules,
	FieldLink,
}

// FieldNames returns the record's field names in output order.
func FieldNames() []string {
	names := make([]string, len(fieldNames))
	copy(names, fieldNames)
	return names
}

// Values returns the field values in the same order as FieldNames.
func (r *PropertyRecord) Values() []string {
	return []string{
		r.Title,
		r.Description,
		r.Address,
		r.AppraisalValue,
		r.MinimumSaleValue,
		r.PropertyType,
		r.Rooms,
		r.Parking,
		r.PropertyCode,
		r.Registrations,
		r.Jurisdiction,
		r.TaxRegistration,
		r.TotalArea,
		r.PrivateArea,
		r.PaymentTerms,
		r.ExpenseRules,
		r.Link,
	}
}

// Set assigns a field by name. Unknown names are ignored and reported false.
func (r *PropertyRecord) Set(name, value string) bool {
	if p := r.field(name); p != nil {
		*p = value
		return true
	}
	return false
}

// Get returns a field by name, "" for unknown names.
func (r *PropertyRecord) Get(name string) string {
	if p := r.field(name); p != nil {
		return *p
	}
	return ""
}

func (r *PropertyRecord) field(name string) *string {
	switch name {
	case FieldTitle:
		return &r.Title
	case FieldDescription:
		return &r.Description
	case FieldAddress:
		return &r.Address
	case FieldAppraisalValue:
		return &r.AppraisalValue
	case FieldMinimumSaleValue:
		return &r.MinimumSaleValue
	case FieldPropertyType:
		return &r.PropertyType
	case FieldRooms:
		return &r.Rooms
	case FieldParking:
		return &r.Parking
	case FieldPropertyCode:
		return &r.PropertyCode
	case FieldRegistrations:
		return &r.Registrations
	case FieldJurisdiction:
		return &r.Jurisdiction
	case FieldTaxRegistration:
		return &r.TaxRegistration
	case FieldTotalArea:
		return &r.TotalArea
	case FieldPrivateArea:
		return &r.PrivateArea
	case FieldPaymentTerms:
		return &r.PaymentTerms
	case FieldExpenseRules:
		return &r.ExpenseRules
	case FieldLink:
		return &r.Link
	}
	return nil
}

// ResultSet holds records in harvested-link order.
type ResultSet []PropertyRecord
