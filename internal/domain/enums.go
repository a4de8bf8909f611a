package domain

// FileType represents the allowed file types for invoice upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf": FileTypePDF,
}

// InvoiceSource records how an invoice reached the ledger.
type InvoiceSource string

const (
	InvoiceSourceUpload InvoiceSource = "upload"
	InvoiceSourceEmail  InvoiceSource = "email"
)

// UnknownQuantity marks a budget item that was never pre-declared and only
// exists because an invoice shipped it.
const UnknownQuantity = -1
