package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-airtable/airtable"
)

var errMissingData = errors.New("record fields are required, pass --data")

func newGetCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "get TABLE RECORD_ID",
		Short:   "Fetch one record",
		Example: `  airtable get Tasks recXXXXXXXXXXXXXX`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, args[0], func(s *session, t *airtable.SyncTable[map[string]any]) error {
				ctx, cancel := root.commandContext(cmd)
				defer cancel()

				rec, err := t.Get(ctx, args[1])
				if err != nil {
					return err
				}
				return s.print(rec)
			})
		},
	}
}

// ListOptions holds the flags of the list command.
type ListOptions struct {
	Fields     []string
	Formula    string
	MaxRecords int
	PageSize   int
	Sort       []string
	View       string
	CellFormat string
	TimeZone   string
	Locale     string
	Offset     string
}

func newListCommand(root *RootOptions) *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list TABLE",
		Short: "List one page of records",
		Long: `Lists one page of records. When more records exist the output carries an
offset; pass it back with --offset to fetch the next page.`,
		Example: `  # Ten most recent open tasks
  airtable list Tasks --formula "{Status}='Open'" --sort Created:desc --max-records 10

  # Only some fields
  airtable list Tasks --field Name --field Status`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listOpts, err := opts.toListOptions()
			if err != nil {
				return err
			}
			return root.run(cmd, args[0], func(s *session, t *airtable.SyncTable[map[string]any]) error {
				ctx, cancel := root.commandContext(cmd)
				defer cancel()

				page, err := t.List(ctx, listOpts)
				if err != nil {
					return err
				}
				return s.print(page)
			})
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.Fields, "field", nil, "Field to return, repeatable")
	f.StringVar(&opts.Formula, "formula", "", "filterByFormula expression")
	f.IntVar(&opts.MaxRecords, "max-records", 0, "Maximum number of records")
	f.IntVar(&opts.PageSize, "page-size", 0, "Records per page, at most 100")
	f.StringSliceVar(&opts.Sort, "sort", nil, "Sort as FIELD or FIELD:asc|desc, repeatable")
	f.StringVar(&opts.View, "view", "", "View name or ID")
	f.StringVar(&opts.CellFormat, "cell-format", "", "json or string")
	f.StringVar(&opts.TimeZone, "time-zone", "", "Time zone for string cell format")
	f.StringVar(&opts.Locale, "user-locale", "", "Locale for string cell format")
	f.StringVar(&opts.Offset, "offset", "", "Offset returned by the previous page")

	return cmd
}

func (o *ListOptions) toListOptions() (*airtable.ListOptions, error) {
	out := &airtable.ListOptions{
		Fields:          o.Fields,
		FilterByFormula: o.Formula,
		MaxRecords:      o.MaxRecords,
		PageSize:        o.PageSize,
		View:            o.View,
		CellFormat:      o.CellFormat,
		TimeZone:        o.TimeZone,
		UserLocale:      o.Locale,
		Offset:          o.Offset,
	}
	for _, spec := range o.Sort {
		field, dir, _ := strings.Cut(spec, ":")
		switch dir {
		case "", airtable.SortAsc, airtable.SortDesc:
		default:
			return nil, fmt.Errorf("invalid sort direction %q for field %q", dir, field)
		}
		out.Sort = append(out.Sort, airtable.Sort{Field: field, Direction: dir})
	}
	return out, nil
}

// WriteOptions holds the flags of create and update.
type WriteOptions struct {
	Data     string
	Typecast bool
	Replace  bool
}

func newCreateCommand(root *RootOptions) *cobra.Command {
	opts := &WriteOptions{}

	cmd := &cobra.Command{
		Use:     "create TABLE",
		Short:   "Create a record",
		Example: `  airtable create Tasks --data '{"Name":"Write report","Status":"Open"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, args[0], func(s *session, t *airtable.SyncTable[map[string]any]) error {
				fields, err := opts.fields(s, cmd.InOrStdin())
				if err != nil {
					return err
				}
				ctx, cancel := root.commandContext(cmd)
				defer cancel()

				rec, err := t.Create(ctx, fields, opts.writeOptions()...)
				if err != nil {
					return err
				}
				return s.print(rec)
			})
		},
	}
	opts.bind(cmd, false)
	return cmd
}

func newUpdateCommand(root *RootOptions) *cobra.Command {
	opts := &WriteOptions{}

	cmd := &cobra.Command{
		Use:   "update TABLE RECORD_ID",
		Short: "Update a record",
		Long: `Updates the given fields of a record. With --replace every field not in
--data is cleared.`,
		Example: `  airtable update Tasks recXXXXXXXXXXXXXX --data '{"Status":"Done"}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, args[0], func(s *session, t *airtable.SyncTable[map[string]any]) error {
				fields, err := opts.fields(s, cmd.InOrStdin())
				if err != nil {
					return err
				}
				ctx, cancel := root.commandContext(cmd)
				defer cancel()

				update := t.Update
				if opts.Replace {
					update = t.Replace
				}
				rec, err := update(ctx, args[1], fields, opts.writeOptions()...)
				if err != nil {
					return err
				}
				return s.print(rec)
			})
		},
	}
	opts.bind(cmd, true)
	return cmd
}

func newDeleteCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TABLE RECORD_ID",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, args[0], func(s *session, t *airtable.SyncTable[map[string]any]) error {
				ctx, cancel := root.commandContext(cmd)
				defer cancel()

				res, err := t.Delete(ctx, args[1])
				if err != nil {
					return err
				}
				return s.print(res)
			})
		},
	}
}

func (o *WriteOptions) bind(cmd *cobra.Command, withReplace bool) {
	f := cmd.Flags()
	f.StringVarP(&o.Data, "data", "d", "", "Record fields as a JSON object, - reads stdin")
	f.BoolVar(&o.Typecast, "typecast", false, "Let Airtable convert string values to the field types")
	if withReplace {
		f.BoolVar(&o.Replace, "replace", false, "Replace the whole record instead of merging fields")
	}
}

func (o *WriteOptions) fields(s *session, stdin io.Reader) (map[string]any, error) {
	raw := []byte(o.Data)
	if o.Data == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		raw = data
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errMissingData
	}

	var fields map[string]any
	if err := s.codec.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("invalid --data: %w", err)
	}
	return fields, nil
}

func (o *WriteOptions) writeOptions() []airtable.WriteOption {
	if o.Typecast {
		return []airtable.WriteOption{airtable.WithTypecast()}
	}
	return nil
}

// run opens a session, resolves table against the default base and closes the session
// when fn returns.
func (o *RootOptions) run(cmd *cobra.Command, table string, fn func(*session, *airtable.SyncTable[map[string]any]) error) error {
	s, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := s.table(table)
	if err != nil {
		return err
	}
	return fn(s, t)
}
