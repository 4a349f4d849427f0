package model

const MaxLimit = 100

// Page is skip/limit pagination.
type Page struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// NewPage clamps limit into (0, MaxLimit], falling back to def.
func NewPage(skip, limit, def int) Page {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = def
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Skip: skip, Limit: limit}
}
