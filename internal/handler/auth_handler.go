package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/testeam/internal/auth"
	"github.com/hitoshi/testeam/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Signup(ctx context.Context, input auth.SignupInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// ResetServiceInterface はパスワードリセットハンドラーが必要とするサービスインターフェース。
type ResetServiceInterface interface {
	RequestReset(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, code string) error
	CompleteReset(ctx context.Context, code, newPassword string) error
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	reset   ResetServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, reset ResetServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
		reset:   reset,
	}
}

type signupRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// Signup はユーザー登録を処理する。
// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.service.Signup(r.Context(), auth.SignupInput{
		Email:       req.Email,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, userResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		PhoneNumber: user.PhoneNumber,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login はログインを処理しアクセストークンを返す。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword はパスワードリセットの開始を処理する。
// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.reset.RequestReset(r.Context(), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "reset email sent"})
}

type verifyResetCodeRequest struct {
	Code string `json:"code"`
}

// VerifyResetCode はリセットコードの有効性確認を処理する。コードは消費しない。
// POST /auth/verify-reset-code
func (h *AuthHandler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req verifyResetCodeRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.reset.VerifyCode(r.Context(), req.Code); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "code is valid"})
}

type resetPasswordRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

// ResetPassword はリセットコードによるパスワード再設定を処理する。
// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.reset.CompleteReset(r.Context(), req.Code, req.Password); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "password has been reset"})
}
