package airtable

// Record is one row of a table. Fields is decoded into the caller's type.
type Record[T any] struct {
	ID          string `json:"id,omitempty"`
	CreatedTime string `json:"createdTime,omitempty"`
	Fields      T      `json:"fields"`
}

// ListResult is a single page of records. Offset is set when more pages exist; pass it
// back in ListOptions.Offset to fetch the next page.
type ListResult[T any] struct {
	Records []Record[T] `json:"records"`
	Offset  string      `json:"offset,omitempty"`
}

// DeleteResult is the service's answer to a delete.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Attachment is the value of an attachment field entry.
type Attachment struct {
	ID         string               `json:"id,omitempty"`
	URL        string               `json:"url"`
	Filename   string               `json:"filename,omitempty"`
	Size       int64                `json:"size,omitempty"`
	Type       string               `json:"type,omitempty"`
	Thumbnails map[string]Thumbnail `json:"thumbnails,omitempty"`
}

// Thumbnail is one rendition of an image attachment ("small", "large", "full").
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type writeBody[T any] struct {
	Fields   T    `json:"fields"`
	Typecast bool `json:"typecast,omitempty"`
}
