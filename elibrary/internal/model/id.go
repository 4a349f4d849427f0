package model

import "fmt"

type IDKind string

const (
	IDMember      IDKind = "member"
	IDBook        IDKind = "book"
	IDCopy        IDKind = "copy"
	IDLoan        IDKind = "loan"
	IDTransaction IDKind = "transaction"
)

var idFormats = map[IDKind]string{
	IDMember:      "MEM%06d",
	IDBook:        "BK%06d",
	IDCopy:        "CP%06d",
	IDLoan:        "LN%06d",
	IDTransaction: "TX%08d",
}

// FormatID renders a sequence value as a human readable id, e.g. LN000045.
func FormatID(kind IDKind, n int64) string {
	format, ok := idFormats[kind]
	if !ok {
		return fmt.Sprintf("%s-%d", kind, n)
	}
	return fmt.Sprintf(format, n)
}
