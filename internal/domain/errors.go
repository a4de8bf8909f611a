package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrArchiveFailed       = errors.New("file archive to storage failed")

	ErrProjectNotFound      = errors.New("project not found")
	ErrDuplicateProjectName = errors.New("a project with that name already exists")
	ErrProjectNameRequired  = errors.New("project name is required")
	ErrInvalidBudgetItem    = errors.New("each item requires sku, material name, non-negative quantity, and non-negative received amount")
	ErrDuplicateSKU         = errors.New("sku already exists in this project")

	ErrUnreadablePDF           = errors.New("pdf could not be read")
	ErrNoExtractableText       = errors.New("document contains no extractable text")
	ErrInvoiceAlreadyUsed      = errors.New("invoice has already been applied to this project")
	ErrInvalidTotal            = errors.New("invoice total could not be parsed")
	ErrAddressMissing          = errors.New("invoice has no ship-to address")
	ErrIngestionInProgress     = errors.New("mailbox ingestion already running")
	ErrMailboxDisabled         = errors.New("mailbox ingestion is not configured")
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
)
