package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"boutique/internal/domain/models"
	"boutique/internal/services/auth"
)

type authHandler struct {
	auth *auth.Auth
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "nom et email requis")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "le mot de passe doit contenir au moins 6 caractères")
		return
	}

	userID, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserAlreadyExists) {
			writeError(w, http.StatusConflict, "un compte existe déjà avec cet email")
			return
		}
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		"success": true,
		"message": "compte créé, vérifiez votre email",
		"userId":  userID,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email et mot de passe requis")
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "email ou mot de passe incorrect")
		case errors.Is(err, auth.ErrAccountLocked):
			writeError(w, http.StatusUnauthorized, "compte temporairement verrouillé")
		case errors.Is(err, auth.ErrNotVerified):
			writeError(w, http.StatusForbidden, "email non vérifié")
		default:
			writeError(w, http.StatusInternalServerError, "erreur interne")
		}
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":      true,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *authHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh token requis")
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken, clientIP(r))
	if err != nil {
		if errors.Is(err, auth.ErrSessionExpired) {
			writeError(w, http.StatusUnauthorized, "session expirée, reconnectez-vous")
			return
		}
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":      true,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh token requis")
		return
	}

	if err := h.auth.Logout(r.Context(), req.RefreshToken, clientIP(r)); err != nil {
		// An unknown token indicates a caller bug, not a credential problem.
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "déconnecté"})
}

func (h *authHandler) logoutAll(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	count, err := h.auth.LogoutEverywhere(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "déconnecté de tous les appareils",
		"revoked": count,
	})
}

func (h *authHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token requis")
		return
	}

	if err := h.auth.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusBadRequest, "lien de vérification invalide ou expiré")
			return
		}
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "email vérifié"})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *authHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email requis")
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	// Always reported as success to avoid account enumeration.
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "si ce compte existe, un email a été envoyé",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *authHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token et mot de passe requis")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "le mot de passe doit contenir au moins 6 caractères")
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusBadRequest, "lien de réinitialisation invalide ou expiré")
			return
		}
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "mot de passe réinitialisé"})
}

func (h *authHandler) me(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	user, err := h.auth.User(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "utilisateur non trouvé")
			return
		}
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "user": userView(user)})
}

// userView strips credentials and internal counters from the API shape.
func userView(u *models.User) envelope {
	return envelope{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"role":       u.Role,
		"isVerified": u.IsVerified,
		"phone":      u.Phone,
		"address": envelope{
			"street":     u.Address.Street,
			"city":       u.Address.City,
			"postalCode": u.Address.PostalCode,
			"country":    u.Address.Country,
		},
		"lastLogin": u.LastLogin,
		"createdAt": u.CreatedAt,
	}
}
