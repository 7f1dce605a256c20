package airtable

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gaborage/go-airtable/httpclient"
)

// AsyncTable issues calls against one table and returns futures. Fields are decoded into T.
type AsyncTable[T any] struct {
	at     *Airtable
	baseID string
	name   string
}

// Async binds a to table of base baseID.
func Async[T any](a *Airtable, baseID, table string) *AsyncTable[T] {
	return &AsyncTable[T]{at: a, baseID: baseID, name: table}
}

// AsyncDefault binds a to table of the configured base.
func AsyncDefault[T any](a *Airtable, table string) (*AsyncTable[T], error) {
	if a.Base() == "" {
		return nil, ErrMissingBase
	}
	return Async[T](a, a.Base(), table), nil
}

// Name returns the table name.
func (t *AsyncTable[T]) Name() string {
	return t.name
}

// BaseID returns the base the table belongs to.
func (t *AsyncTable[T]) BaseID() string {
	return t.baseID
}

// List fetches one page of records.
func (t *AsyncTable[T]) List(ctx context.Context, opts *ListOptions) *httpclient.Future[*ListResult[T]] {
	req, err := t.request(http.MethodGet, "", false, opts.values(), nil)
	if err != nil {
		return httpclient.Completed[*ListResult[T]](nil, err)
	}
	return call[ListResult[T]](ctx, t.at, req)
}

// Get fetches one record by ID.
func (t *AsyncTable[T]) Get(ctx context.Context, id string) *httpclient.Future[*Record[T]] {
	req, err := t.request(http.MethodGet, id, true, nil, nil)
	if err != nil {
		return httpclient.Completed[*Record[T]](nil, err)
	}
	return call[Record[T]](ctx, t.at, req)
}

// Create inserts a record and returns it as stored.
func (t *AsyncTable[T]) Create(ctx context.Context, fields T, opts ...WriteOption) *httpclient.Future[*Record[T]] {
	return t.write(ctx, http.MethodPost, "", false, fields, opts)
}

// Update changes only the given fields of a record.
func (t *AsyncTable[T]) Update(ctx context.Context, id string, fields T, opts ...WriteOption) *httpclient.Future[*Record[T]] {
	return t.write(ctx, http.MethodPatch, id, true, fields, opts)
}

// Replace overwrites a record; fields left out are cleared.
func (t *AsyncTable[T]) Replace(ctx context.Context, id string, fields T, opts ...WriteOption) *httpclient.Future[*Record[T]] {
	return t.write(ctx, http.MethodPut, id, true, fields, opts)
}

// Delete removes a record.
func (t *AsyncTable[T]) Delete(ctx context.Context, id string) *httpclient.Future[*DeleteResult] {
	req, err := t.request(http.MethodDelete, id, true, nil, nil)
	if err != nil {
		return httpclient.Completed[*DeleteResult](nil, err)
	}
	return call[DeleteResult](ctx, t.at, req)
}

func (t *AsyncTable[T]) write(ctx context.Context, method, id string, needsID bool, fields T, opts []WriteOption) *httpclient.Future[*Record[T]] {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	req, err := t.request(method, id, needsID, nil, writeBody[T]{Fields: fields, Typecast: o.typecast})
	if err != nil {
		return httpclient.Completed[*Record[T]](nil, err)
	}
	return call[Record[T]](ctx, t.at, req)
}

func (t *AsyncTable[T]) request(method, id string, needsID bool, query url.Values, payload any) (*httpclient.Request, error) {
	if t.baseID == "" {
		return nil, ErrMissingBase
	}
	if t.name == "" {
		return nil, ErrMissingTable
	}
	if needsID && id == "" {
		return nil, ErrMissingRecordID
	}
	return t.at.newRequest(method, t.baseID, t.name, id, query, payload)
}

// SyncTable is the blocking form of AsyncTable.
type SyncTable[T any] struct {
	async *AsyncTable[T]
}

// Sync binds a to table of base baseID.
func Sync[T any](a *Airtable, baseID, table string) *SyncTable[T] {
	return &SyncTable[T]{async: Async[T](a, baseID, table)}
}

// SyncDefault binds a to table of the configured base.
func SyncDefault[T any](a *Airtable, table string) (*SyncTable[T], error) {
	async, err := AsyncDefault[T](a, table)
	if err != nil {
		return nil, err
	}
	return &SyncTable[T]{async: async}, nil
}

// Async returns the non-blocking view of the same table.
func (t *SyncTable[T]) Async() *AsyncTable[T] {
	return t.async
}

// List fetches one page of records.
func (t *SyncTable[T]) List(ctx context.Context, opts *ListOptions) (*ListResult[T], error) {
	return await(ctx, t.async.List(ctx, opts))
}

// Get fetches one record by ID.
func (t *SyncTable[T]) Get(ctx context.Context, id string) (*Record[T], error) {
	return await(ctx, t.async.Get(ctx, id))
}

// Create inserts a record.
func (t *SyncTable[T]) Create(ctx context.Context, fields T, opts ...WriteOption) (*Record[T], error) {
	return await(ctx, t.async.Create(ctx, fields, opts...))
}

// Update changes only the given fields of a record.
func (t *SyncTable[T]) Update(ctx context.Context, id string, fields T, opts ...WriteOption) (*Record[T], error) {
	return await(ctx, t.async.Update(ctx, id, fields, opts...))
}

// Replace overwrites a record.
func (t *SyncTable[T]) Replace(ctx context.Context, id string, fields T, opts ...WriteOption) (*Record[T], error) {
	return await(ctx, t.async.Replace(ctx, id, fields, opts...))
}

// Delete removes a record.
func (t *SyncTable[T]) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	return await(ctx, t.async.Delete(ctx, id))
}

// await reports an abandoned wait the same way the core reports a cancelled call.
func await[V any](ctx context.Context, f *httpclient.Future[V]) (V, error) {
	v, err := f.Await(ctx)
	if err == nil || ctx.Err() == nil {
		return v, err
	}
	if _, ok := httpclient.AsError(err); !ok && errors.Is(err, ctx.Err()) {
		return v, httpclient.NewTransportError(err)
	}
	return v, err
}
