package auth

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/model"
	authutil "github.com/ethicsfolio/portfolio-api/utils/auth"
	"github.com/ethicsfolio/portfolio-api/utils/middleware"
	"github.com/ethicsfolio/portfolio-api/utils/response"
	"github.com/ethicsfolio/portfolio-api/utils/validation"
)

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword updates the caller's password and invalidates existing
// tokens. Also clears the first-login flag.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if !authutil.IsPasswordValid(req.NewPassword) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		return response.Unauthorized(c, "Current password is incorrect")
	}

	hash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	err = h.db.Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"password_hash":  hash,
			"is_first_login": false,
		}).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	// Every outstanding token dies with the old password.
	if err := h.blacklistService.RevokeAllUserTokens(c.Context(), user.ID); err != nil {
		log.Printf("Failed to bump token version for user %d: %v", user.ID, err)
	}

	return response.SuccessWithMessage(c, "Password changed successfully", nil)
}

// ForgotPasswordRequest represents a forgot password request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword generates a reset code and emails it. The response does not
// reveal whether the email exists.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Email = validation.SanitizeString(req.Email)
	if !validation.ValidateEmail(req.Email) {
		return response.BadRequest(c, "Invalid email format")
	}

	genericMsg := "If an account exists for this email, a reset code has been sent"

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.SuccessWithMessage(c, genericMsg, nil)
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	otp, err := authutil.GenerateOTP()
	if err != nil {
		return response.InternalServerError(c, "Failed to generate reset code")
	}

	expiry := time.Now().Add(authutil.OTPValidity)
	err = h.db.Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"reset_password_otp":        authutil.HashOTP(otp),
			"reset_password_otp_expiry": expiry,
		}).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to store reset code")
	}

	if err := h.emailService.SendPasswordResetOTP(user.Email, user.Profile.FirstName, otp); err != nil {
		log.Printf("Failed to send reset code to %s: %v", user.Email, err)
		// Clear the code so an unsent OTP cannot linger.
		h.db.Model(&model.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]interface{}{
				"reset_password_otp":        "",
				"reset_password_otp_expiry": nil,
			})
		return response.InternalServerError(c, "Failed to send reset code")
	}

	return response.SuccessWithMessage(c, genericMsg, nil)
}

// ResetPasswordRequest represents a password reset with OTP
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ResetPassword verifies the reset code and sets a new password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Email = validation.SanitizeString(req.Email)
	if !authutil.IsPasswordValid(req.NewPassword) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return response.Unauthorized(c, "Invalid or expired reset code")
	}

	if user.ResetPasswordOTPExpiry == nil || time.Now().After(*user.ResetPasswordOTPExpiry) {
		return response.Unauthorized(c, "Invalid or expired reset code")
	}
	if !authutil.VerifyOTP(user.ResetPasswordOTP, req.OTP) {
		h.recordFailedAttempt(c, req.Email)
		return response.Unauthorized(c, "Invalid or expired reset code")
	}

	hash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	err = h.db.Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"password_hash":             hash,
			"is_first_login":            false,
			"reset_password_otp":        "",
			"reset_password_otp_expiry": nil,
		}).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	if err := h.blacklistService.RevokeAllUserTokens(c.Context(), user.ID); err != nil {
		log.Printf("Failed to bump token version for user %d: %v", user.ID, err)
	}

	return response.SuccessWithMessage(c, "Password reset successfully", nil)
}
