package model

// BulkImportReq imports a list of students in one administrative call.
type BulkImportReq struct {
	Students []CreateStudentReq `json:"students" validate:"required,min=1,max=200"`
}

func (r *BulkImportReq) Validate() error {
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

// BulkImportResult reports the per-handle outcome of a bulk import.
// Partial success is allowed.
type BulkImportResult struct {
	CreatedCount  int                `json:"created_count"`
	FailedCount   int                `json:"failed_count"`
	FailedHandles []FailedHandleInfo `json:"failed_handles,omitempty"`
}

type FailedHandleInfo struct {
	Handle string `json:"handle"`
	Reason string `json:"reason"`
}
