package extraction

import (
	"fmt"
	"strings"
)

// FieldType is the JSON type a schema field is coerced to before validation
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldPercent FieldType = "number"
	FieldDate    FieldType = "date"
)

// Field is one named output field of an extraction
type Field struct {
	Name        string
	Type        FieldType
	Description string
}

// Schema describes the record the model is asked to produce
type Schema struct {
	Name   string
	Fields []Field
}

// Schedule13GSchema is the extraction contract for Schedule 13G cover pages
var Schedule13GSchema = Schema{
	Name: "schedule_13g_entry",
	Fields: []Field{
		{Name: "report_date", Type: FieldDate, Description: "date of the event which requires filing of this statement, formatted yyyy/mm/dd"},
		{Name: "issuer", Type: FieldString, Description: "name of the issuer whose securities are reported"},
		{Name: "name_filer", Type: FieldString, Description: "name of the reporting person"},
		{Name: "irs_id_filer", Type: FieldString, Description: "IRS identification number of the reporting person, empty if not given"},
		{Name: "cusip", Type: FieldString, Description: "CUSIP number of the class of securities"},
		{Name: "shares_owned", Type: FieldInteger, Description: "aggregate amount beneficially owned by the reporting person"},
		{Name: "percent_of_class", Type: FieldPercent, Description: "percent of class represented by the amount owned"},
		{Name: "voting_sole", Type: FieldInteger, Description: "shares with sole power to vote"},
		{Name: "voting_shared", Type: FieldInteger, Description: "shares with shared power to vote"},
		{Name: "shares_dispo_sole", Type: FieldInteger, Description: "shares with sole power to dispose"},
		{Name: "shares_dispo_shared", Type: FieldInteger, Description: "shares with shared power to dispose"},
	},
}

// Describe renders the schema as the field list included in the prompt
func (s Schema) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Return a single JSON object (%s) with exactly these keys:\n", s.Name)
	for _, f := range s.Fields {
		typ := string(f.Type)
		if f.Type == FieldDate {
			typ = "string"
		}
		fmt.Fprintf(&sb, "- %s (%s): %s\n", f.Name, typ, f.Description)
	}
	return sb.String()
}
