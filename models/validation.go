package models

const (
	CodeTitleRequired          = "TITLE_REQUIRED"
	CodeTitleTooShort          = "TITLE_TOO_SHORT"
	CodeTitleTooLong           = "TITLE_TOO_LONG"
	CodeContentRequired        = "CONTENT_REQUIRED"
	CodeSectionsRequired       = "SECTIONS_REQUIRED"
	CodeSectionTitleTooShort   = "SECTION_TITLE_TOO_SHORT"
	CodeParagraphTooShort      = "PARAGRAPH_TOO_SHORT"
	CodeSectionImageURLInvalid = "SECTION_IMAGE_URL_INVALID"
	CodeOrderIndexInvalid      = "ORDER_INDEX_INVALID"
	CodeCategoryRequired       = "CATEGORY_REQUIRED"
	CodeCategoryNotFound       = "CATEGORY_NOT_FOUND"
	CodeInvalidMimeType        = "INVALID_MIME_TYPE"
	CodeImageTooLarge          = "IMAGE_TOO_LARGE"
)

// ValidationReport is a field-keyed collection of every violation found in a
// payload. Messages and codes are appended in the same order per field.
type ValidationReport struct {
	Valid      bool                `json:"valid"`
	Errors     map[string][]string `json:"errors"`
	ErrorCodes map[string][]string `json:"error_codes"`
}

func NewValidationReport() *ValidationReport {
	return &ValidationReport{
		Valid:      true,
		Errors:     map[string][]string{},
		ErrorCodes: map[string][]string{},
	}
}

func (r *ValidationReport) Add(field, code, message string) {
	r.Valid = false
	r.Errors[field] = append(r.Errors[field], message)
	r.ErrorCodes[field] = append(r.ErrorCodes[field], code)
}

// HasCode reports whether code was recorded for field.
func (r *ValidationReport) HasCode(field, code string) bool {
	for _, c := range r.ErrorCodes[field] {
		if c == code {
			return true
		}
	}
	return false
}
