package http

import (
	"net/http"

	"github.com/Spok95/gym-console/internal/auth"
	"github.com/Spok95/gym-console/internal/domain/tenants"
)

type session struct {
	auth.Token
	Tenant *tenants.Tenant `json:"tenant"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var in tenants.RegisterInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	t, err := h.Tenants.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	tok, err := h.Issuer.Issue(t.ID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.Log.Info("tenant registered", "tenant_id", t.ID, "gym_code", t.GymCode)
	writeJSON(w, http.StatusCreated, session{Token: tok, Tenant: t})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	t, err := h.Tenants.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	tok, err := h.Issuer.Issue(t.ID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, session{Token: tok, Tenant: t})
}

func (h *handler) profile(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tenants.Get(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in tenants.ProfileInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	t, err := h.Tenants.UpdateProfile(r.Context(), tenantID(r), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var in tenants.PasswordInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Tenants.ChangePassword(r.Context(), tenantID(r), in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
