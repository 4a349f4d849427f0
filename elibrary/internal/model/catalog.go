package model

type CopyStatus string

const (
	CopyAvailable CopyStatus = "available"
	CopyBorrowed  CopyStatus = "borrowed"
)

type Book struct {
	ID            string   `json:"id" db:"id"`
	ISBN          string   `json:"isbn" db:"isbn" validate:"required"`
	Title         string   `json:"title" db:"title" validate:"required"`
	Authors       []string `json:"authors" db:"authors"`
	LccCode       string   `json:"lccCode" db:"lcc_code"`
	LccName       string   `json:"lccName" db:"lcc_name"`
	Subjects      []string `json:"subjects" db:"subjects"`
	Description   string   `json:"description" db:"description"`
	Publisher     string   `json:"publisher" db:"publisher"`
	PublishedYear int      `json:"publishedYear" db:"published_year"`
	Pages         *int     `json:"pages" db:"pages"`
	Language      string   `json:"language" db:"language"`
}

type BookSearchResult struct {
	Book
	Score float64 `json:"score" db:"score"`
}

type BookUpdate struct {
	ISBN          *string   `json:"isbn,omitempty"`
	Title         *string   `json:"title,omitempty"`
	Authors       *[]string `json:"authors,omitempty"`
	LccCode       *string   `json:"lccCode,omitempty"`
	LccName       *string   `json:"lccName,omitempty"`
	Subjects      *[]string `json:"subjects,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Publisher     *string   `json:"publisher,omitempty"`
	PublishedYear *int      `json:"publishedYear,omitempty"`
	Pages         *int      `json:"pages,omitempty"`
	Language      *string   `json:"language,omitempty"`
}

func (u BookUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	set := func(col string, ok bool, v any) {
		if ok {
			fields[col] = v
		}
	}
	set("isbn", u.ISBN != nil, deref(u.ISBN))
	set("title", u.Title != nil, deref(u.Title))
	set("authors", u.Authors != nil, deref(u.Authors))
	set("lcc_code", u.LccCode != nil, deref(u.LccCode))
	set("lcc_name", u.LccName != nil, deref(u.LccName))
	set("subjects", u.Subjects != nil, deref(u.Subjects))
	set("description", u.Description != nil, deref(u.Description))
	set("publisher", u.Publisher != nil, deref(u.Publisher))
	set("published_year", u.PublishedYear != nil, deref(u.PublishedYear))
	set("pages", u.Pages != nil, u.Pages)
	set("language", u.Language != nil, deref(u.Language))
	return fields
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

type BookFilter struct {
	LccCode  string
	Language string
	Page     Page
}

type Copy struct {
	ID        string     `json:"id" db:"id"`
	BookID    string     `json:"bookId" db:"book_id"`
	BranchID  string     `json:"branchId" db:"branch_id"`
	Barcode   string     `json:"barcode" db:"barcode"`
	Status    CopyStatus `json:"status" db:"status"`
	Condition string     `json:"condition" db:"condition"`
}

type CopyFilter struct {
	BranchID string
	Status   string
}

type DigitalLicense struct {
	ID                 string `json:"id" db:"id"`
	BookID             string `json:"bookId" db:"book_id"`
	Vendor             string `json:"vendor" db:"vendor"`
	LicenseType        string `json:"licenseType" db:"license_type"`
	MaxConcurrentUsers *int   `json:"maxConcurrentUsers" db:"max_concurrent_users"`
	URL                string `json:"url" db:"url"`
}

type Category struct {
	Code  string `json:"code" db:"code"`
	Name  string `json:"name" db:"name"`
	Count int    `json:"count" db:"count"`
}
