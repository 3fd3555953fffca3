package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeConflict          = "CONFLICT"
	CodeValidation        = "VALIDATION"
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeInternal          = "INTERNAL"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		CodeNotFound:          "The requested {{.Entity}} does not exist",
		CodeForbidden:         "You are not allowed to perform this action",
		CodeInvalidTransition: "A {{.Entity}} cannot move from {{.From}} to {{.To}}",
		CodeConflict:          "This {{.Entity}} already exists",
		CodeValidation:        "Invalid value for {{.Field}}",
		CodeUnauthenticated:   "Authentication is required",
		CodeInternal:          "Something went wrong, please try again",
	},
}
