package service

import (
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
)

var (
	ErrCartNotFound     = apperrors.New(apperrors.KindNotFound, apperrors.CartNotFound, "no active cart")
	ErrCartNotActive    = apperrors.New(apperrors.KindConflict, apperrors.CartNotActive, "cart is no longer active")
	ErrEmptyCart        = apperrors.New(apperrors.KindValidation, apperrors.CartEmpty, "cart is empty")
	ErrInvalidQuantity  = apperrors.New(apperrors.KindValidation, apperrors.CartInvalidQuantity, "quantity must be positive")
	ErrCartItemNotFound = apperrors.New(apperrors.KindNotFound, apperrors.CartItemNotFound, "product is not in the cart")
	ErrCartInvalid      = apperrors.New(apperrors.KindValidation, apperrors.CartValidationFailed, "cart cannot be checked out")

	ErrProductNotFound    = apperrors.New(apperrors.KindNotFound, apperrors.ProductNotFound, "product not found")
	ErrProductUnavailable = apperrors.New(apperrors.KindValidation, apperrors.ProductUnavailable, "product is unavailable")

	ErrOrderNotFound       = apperrors.New(apperrors.KindNotFound, apperrors.OrderNotFound, "order not found")
	ErrInvalidTransition   = apperrors.New(apperrors.KindConflict, apperrors.OrderInvalidTransition, "status change not allowed")
	ErrOrderNotPaid        = apperrors.New(apperrors.KindConflict, apperrors.OrderNotPaid, "order must be paid first")
	ErrOrderCancelled      = apperrors.New(apperrors.KindConflict, apperrors.OrderCancelled, "order is cancelled")
	ErrOrderClaimedByOther = apperrors.New(apperrors.KindConflict, apperrors.OrderClaimedByOther, "order is assigned to another chef")

	ErrAlreadyPaid       = apperrors.New(apperrors.KindConflict, apperrors.PaymentAlreadyPaid, "order is already paid")
	ErrPaymentInProgress = apperrors.New(apperrors.KindConflict, apperrors.PaymentInProgress, "payment for this order is in progress")
	ErrInsufficientCash  = apperrors.New(apperrors.KindValidation, apperrors.PaymentInsufficientCash, "amount tendered is less than the total")
	ErrUnsupportedMethod = apperrors.New(apperrors.KindValidation, apperrors.PaymentUnsupported, "unsupported payment method")
	ErrNotRefundable     = apperrors.New(apperrors.KindConflict, apperrors.PaymentNotRefundable, "only paid orders can be refunded")

	ErrIngredientNotFound = apperrors.New(apperrors.KindNotFound, apperrors.IngredientNotFound, "ingredient not found")
	ErrNegativeStock      = apperrors.New(apperrors.KindValidation, apperrors.IngredientNegativeStock, "stock cannot go below zero")

	ErrEmployeeNotFound = apperrors.New(apperrors.KindNotFound, apperrors.EmployeeNotFound, "employee not found")
	ErrNotAChef         = apperrors.New(apperrors.KindForbidden, apperrors.AuthzRoleRequired, "employee is not an active chef")
	ErrCustomerNotFound = apperrors.New(apperrors.KindNotFound, apperrors.CustomerNotFound, "customer not found")
	ErrPhoneExists      = apperrors.New(apperrors.KindConflict, apperrors.CustomerPhoneExists, "phone number already registered")
	ErrUserNotFound     = apperrors.New(apperrors.KindNotFound, apperrors.UserNotFound, "user not found")

	ErrUsernameExists     = apperrors.New(apperrors.KindConflict, apperrors.AuthUsernameExists, "username already exists")
	ErrInvalidCredentials = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthInvalidCredentials, "invalid username or password")
	ErrAccountDisabled    = apperrors.New(apperrors.KindForbidden, apperrors.AuthAccountDisabled, "account is disabled")
	ErrInvalidToken       = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthTokenInvalid, "invalid token")
	ErrWeakPassword       = apperrors.New(apperrors.KindValidation, apperrors.AuthWeakPassword, "password must be at least 8 characters with letters and digits")

	ErrInvalidRange    = apperrors.New(apperrors.KindValidation, apperrors.ReportInvalidRange, "invalid date range")
	ErrStorageDisabled = apperrors.New(apperrors.KindConflict, apperrors.StorageDisabled, "object storage is not configured")
	ErrUploadFailed    = apperrors.New(apperrors.KindInternal, apperrors.UploadFailed, "upload failed")
)
