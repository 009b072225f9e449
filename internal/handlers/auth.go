package handlers

import (
	"net/http"

	"github.com/AnshRaj112/mindfulkids-backend/internal/middleware"
	"github.com/AnshRaj112/mindfulkids-backend/internal/services"
)

// SignUp handles parent and therapist registration
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req services.SignUpInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	session, err := h.auth.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": session.Token,
		"user":  session.User,
	})
}

// SignIn handles login for every role
func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req services.SignInInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	session, err := h.auth.SignIn(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": session.Token,
		"user":  session.User,
	})
}

func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), middleware.BearerToken(r)); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "signed out"})
}

// Me returns the signed-in account
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

type setPasswordFromInviteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// SetPasswordFromInvite creates a clinic administrator account from a one-time invite token
func (h *Handlers) SetPasswordFromInvite(w http.ResponseWriter, r *http.Request) {
	var req setPasswordFromInviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	user, err := h.clinics.RedeemInvite(r.Context(), req.Token, req.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "account created, you can now sign in",
		"user":    user,
	})
}
