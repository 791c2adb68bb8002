package httpapi

import (
	"net/http"

	"github.com/thep200/ecommerce-api/internal/auth"
	"github.com/thep200/ecommerce-api/internal/catalog"
	"github.com/thep200/ecommerce-api/internal/respond"
)

type loginRequest struct {
	// Email nhận cả email lẫn username
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := h.decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.svc.Auth.Register(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.Created(w, "User registered successfully", result)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := h.decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.svc.Auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "Login successful", result)
}

func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := h.decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	tokens, err := h.svc.Auth.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "", tokens)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in forgotRequest
	if err := h.decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	msg, err := h.svc.Auth.ForgotPassword(r.Context(), in.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, msg, nil)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if err := h.decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	msg, err := h.svc.Auth.ResetPassword(r.Context(), in.Token, in.NewPassword)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, msg, nil)
}

// authProfile trả user trực tiếp trong data, khác với /api/users/profile
func (h *Handler) authProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Auth.Profile(r.Context(), auth.UserFrom(r.Context()).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "", user)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Auth.Profile(r.Context(), auth.UserFrom(r.Context()).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "", map[string]interface{}{"user": user})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in auth.ProfileInput
	if err := h.decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.svc.Auth.UpdateProfile(r.Context(), auth.UserFrom(r.Context()).ID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "Profile updated successfully", map[string]interface{}{"user": user})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if limit > 100 {
		limit = 10
	}
	if page > catalog.MaxPage {
		page = catalog.MaxPage
	}
	users, total, err := h.svc.Auth.ListUsers(r.Context(), page, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "", map[string]interface{}{
		"users":      users,
		"pagination": catalog.NewPagination(page, limit, total),
	})
}
