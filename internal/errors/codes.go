package errors

// Error codes returned to clients in the "error" field.
// Format: CATEGORY_SPECIFIC_DETAIL. Panels map these to localized text.

const (
	// ==================== AUTH_ ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthUsernameExists     = "AUTH_USERNAME_EXISTS"
	AuthAccountDisabled    = "AUTH_ACCOUNT_DISABLED"
	AuthWeakPassword       = "AUTH_WEAK_PASSWORD"

	// ==================== AUTHZ_ ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleRequired = "AUTHZ_ROLE_REQUIRED"

	// ==================== VALIDATION_ ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== RESOURCE_ ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== CART_ ====================
	CartNotFound         = "CART_NOT_FOUND"
	CartEmpty            = "CART_EMPTY"
	CartNotActive        = "CART_NOT_ACTIVE"
	CartInvalidQuantity  = "CART_INVALID_QUANTITY"
	CartItemNotFound     = "CART_ITEM_NOT_FOUND"
	CartValidationFailed = "CART_VALIDATION_FAILED"

	// ==================== PRODUCT_ ====================
	ProductNotFound    = "PRODUCT_NOT_FOUND"
	ProductUnavailable = "PRODUCT_UNAVAILABLE"

	// ==================== ORDER_ ====================
	OrderNotFound          = "ORDER_NOT_FOUND"
	OrderInvalidTransition = "ORDER_INVALID_TRANSITION"
	OrderNotPaid           = "ORDER_NOT_PAID"
	OrderCancelled         = "ORDER_CANCELLED"
	OrderClaimedByOther    = "ORDER_CLAIMED_BY_OTHER"

	// ==================== PAYMENT_ ====================
	PaymentAlreadyPaid      = "PAYMENT_ALREADY_PAID"
	PaymentInProgress       = "PAYMENT_IN_PROGRESS"
	PaymentInsufficientCash = "PAYMENT_INSUFFICIENT_CASH"
	PaymentUnsupported      = "PAYMENT_UNSUPPORTED_METHOD"
	PaymentNotRefundable    = "PAYMENT_NOT_REFUNDABLE"

	// ==================== INVENTORY_ ====================
	IngredientNotFound      = "INGREDIENT_NOT_FOUND"
	IngredientNegativeStock = "INGREDIENT_NEGATIVE_STOCK"

	// ==================== PEOPLE ====================
	EmployeeNotFound    = "EMPLOYEE_NOT_FOUND"
	CustomerNotFound    = "CUSTOMER_NOT_FOUND"
	CustomerPhoneExists = "CUSTOMER_PHONE_EXISTS"
	UserNotFound        = "USER_NOT_FOUND"

	// ==================== REPORT_ / UPLOAD_ ====================
	ReportInvalidRange = "REPORT_INVALID_RANGE"
	StorageDisabled    = "STORAGE_DISABLED"
	UploadFailed       = "UPLOAD_FAILED"

	// ==================== INTERNAL_ ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
