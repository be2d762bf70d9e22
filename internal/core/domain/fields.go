package domain

import (
	"fmt"
	"strings"
)

// Required content fields, present on every IndexEntry.
const (
	FieldTitle           = "Title"
	FieldURL             = "URL"
	FieldResourceURLType = "Resource_URL_Type"
	FieldCost            = "Cost"
	FieldLanguage        = "Language"
	FieldProviderID      = "Provider_ID"
)

// FieldVersionDate is the optional field whose default is the run time.
const FieldVersionDate = "Version_Date"

// FieldRule describes how one content field is extracted from a SourceRecord.
type FieldRule struct {
	// Name is the content field written to the index.
	Name string

	// Source is the record key to read. Empty means the same as Name.
	Source string

	// Default is used when the record lacks the key. Nil leaves the field null.
	Default any

	// DefaultRunTime substitutes the run start time when the key is absent.
	DefaultRunTime bool
}

// SourceKey returns the record key the rule reads from.
func (r FieldRule) SourceKey() string {
	if r.Source != "" {
		return r.Source
	}
	return r.Name
}

// RequiredFieldRules returns the rules for the required fields except
// Provider_ID, which always comes from configuration.
func RequiredFieldRules() []FieldRule {
	return []FieldRule{
		{Name: FieldTitle},
		{Name: FieldURL},
		{Name: FieldResourceURLType},
		{Name: FieldCost, Default: "no"},
		{Name: FieldLanguage, Default: "en"},
	}
}

// optionalFields lists the optional content fields in index order.
var optionalFields = []string{
	"Abstract",
	FieldVersionDate,
	"Authors",
	"Keywords",
	"License",
	"Learning_Resource_Type",
	"Learning_Outcome",
	"Target_Group",
	"Expertise_Level",
	"Rating",
	"Start_Datetime",
	"Duration",
}

// OptionalFieldNames returns every optional content field name.
func OptionalFieldNames() []string {
	out := make([]string, len(optionalFields))
	copy(out, optionalFields)
	return out
}

// ParseOptionalFieldRule parses an optional_fields entry.
// The form is "Name" or "Name=SourceKey"; Name must be a known optional field.
func ParseOptionalFieldRule(spec string) (FieldRule, error) {
	name, source, _ := strings.Cut(strings.TrimSpace(spec), "=")
	name = strings.TrimSpace(name)
	source = strings.TrimSpace(source)

	for _, known := range optionalFields {
		if known == name {
			return FieldRule{
				Name:           name,
				Source:         source,
				DefaultRunTime: name == FieldVersionDate,
			}, nil
		}
	}
	return FieldRule{}, fmt.Errorf("%w: unknown optional field %q (known: %s)",
		ErrInvalidInput, name, strings.Join(OptionalFieldNames(), ", "))
}
