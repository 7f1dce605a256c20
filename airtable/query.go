package airtable

import (
	"net/url"
	"strconv"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Cell formats accepted by ListOptions.CellFormat.
const (
	CellFormatJSON   = "json"
	CellFormatString = "string"
)

// Sort orders a list by one field.
type Sort struct {
	Field     string
	Direction string
}

// ListOptions are the query parameters of a list call. Zero values are omitted.
type ListOptions struct {
	Fields          []string
	FilterByFormula string
	MaxRecords      int
	PageSize        int
	Sort            []Sort
	View            string
	CellFormat      string
	TimeZone        string
	UserLocale      string
	Offset          string
}

func (o *ListOptions) values() url.Values {
	v := url.Values{}
	if o == nil {
		return v
	}
	for _, f := range o.Fields {
		v.Add("fields[]", f)
	}
	if o.FilterByFormula != "" {
		v.Set("filterByFormula", o.FilterByFormula)
	}
	if o.MaxRecords > 0 {
		v.Set("maxRecords", strconv.Itoa(o.MaxRecords))
	}
	if o.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(o.PageSize))
	}
	for i, s := range o.Sort {
		prefix := "sort[" + strconv.Itoa(i) + "]"
		v.Set(prefix+"[field]", s.Field)
		if s.Direction != "" {
			v.Set(prefix+"[direction]", s.Direction)
		}
	}
	if o.View != "" {
		v.Set("view", o.View)
	}
	if o.CellFormat != "" {
		v.Set("cellFormat", o.CellFormat)
	}
	if o.TimeZone != "" {
		v.Set("timeZone", o.TimeZone)
	}
	if o.UserLocale != "" {
		v.Set("userLocale", o.UserLocale)
	}
	if o.Offset != "" {
		v.Set("offset", o.Offset)
	}
	return v
}

// WriteOption tunes create, update and replace calls.
type WriteOption func(*writeOptions)

type writeOptions struct {
	typecast bool
}

// WithTypecast lets the service convert string values to the field types.
func WithTypecast() WriteOption {
	return func(o *writeOptions) {
		o.typecast = true
	}
}
