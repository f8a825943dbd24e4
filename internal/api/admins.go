package api

import (
	"net/http"

	"armkala-backend/internal/ledger"
)

// Login verifies credentials and returns the admin record.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	admin, err := a.Ledger.Authenticate(req.Username, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Ledger.LogAction(&admin.Username, "login", "Signed in", ""); err != nil {
		a.Log.Warn().Err(err).Msg("action log write failed")
	}
	writeJSON(w, http.StatusOK, admin)
}

// ListAdmins returns every admin account.
func (a *API) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := a.Ledger.ListAdmins()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"admins": admins})
}

// CreateAdmin adds an account.
func (a *API) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username        string `json:"username"`
		Password        string `json:"password"`
		Role            string `json:"role"`
		AutoLockMinutes int    `json:"auto_lock_minutes"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	admin, err := a.Ledger.CreateAdmin(req.Username, req.Password, req.Role, req.AutoLockMinutes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Ledger.LogAction(optional(actingUser(r)), "admin_create", "Admin created", admin.Username); err != nil {
		a.Log.Warn().Err(err).Msg("action log write failed")
	}
	writeJSON(w, http.StatusCreated, admin)
}

// UpdateAdmin changes password, role or auto-lock for an account. Absent
// fields are left alone.
func (a *API) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req struct {
		Password        *string `json:"password"`
		Role            *string `json:"role"`
		AutoLockMinutes *int    `json:"auto_lock_minutes"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	err = a.Ledger.UpdateAdmin(id, ledger.AdminUpdate{
		Password:        req.Password,
		Role:            req.Role,
		AutoLockMinutes: req.AutoLockMinutes,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	admin, err := a.Ledger.GetAdmin(id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

// DeleteAdmin removes an account.
func (a *API) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Ledger.DeleteAdmin(id); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Ledger.LogAction(optional(actingUser(r)), "admin_delete", "Admin deleted", ""); err != nil {
		a.Log.Warn().Err(err).Msg("action log write failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

// ListActions pages through the audit log.
func (a *API) ListActions(w http.ResponseWriter, r *http.Request) {
	actionType := r.URL.Query().Get("type")
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	entries, err := a.Ledger.ListActions(actionType, limit, offset)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	total, err := a.Ledger.CountActions(actionType)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actions": entries,
		"total":   total,
	})
}
