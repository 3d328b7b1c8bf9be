package models

import "time"

// DocumentKind enumerates supported cadet document uploads.
type DocumentKind string

const (
	DocumentKindCOR        DocumentKind = "COR"
	DocumentKindCredential DocumentKind = "CREDENTIAL"
)

// Valid returns true when the kind is a supported value.
func (k DocumentKind) Valid() bool {
	return k == DocumentKindCOR || k == DocumentKindCredential
}

// CadetDocument stores metadata for an uploaded COR or credential file.
// The file body lives in local storage; downloads go through signed tokens.
type CadetDocument struct {
	ID          string       `db:"id" json:"id"`
	CadetID     string       `db:"cadet_id" json:"cadet_id"`
	Kind        DocumentKind `db:"kind" json:"kind"`
	FileName    string       `db:"file_name" json:"file_name"`
	StoragePath string       `db:"storage_path" json:"-"`
	MIMEType    string       `db:"mime_type" json:"mime_type"`
	SizeBytes   int64        `db:"size_bytes" json:"size_bytes"`
	UploadedBy  string       `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}
