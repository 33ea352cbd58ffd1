package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ddmr2811/Facturas/internal/models"
)

const (
	maxFailedLogins = 5
	lockoutPeriod   = 30 * time.Minute
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

type attempts struct {
	failed      int
	lockedUntil time.Time
}

var (
	mu       sync.RWMutex
	users    = map[string]models.UserConfig{}
	failures = map[string]*attempts{}
)

// SetUsers replaces the accounts allowed to log in
func SetUsers(list []models.UserConfig) {
	mu.Lock()
	defer mu.Unlock()
	users = make(map[string]models.UserConfig, len(list))
	failures = map[string]*attempts{}
	for _, u := range list {
		users[strings.ToLower(u.Username)] = u
	}
}

// HashPassword returns the bcrypt hash stored in the users config
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate checks credentials. After maxFailedLogins consecutive
// failures the account is locked for lockoutPeriod.
func Authenticate(username, password string, now time.Time) (models.UserConfig, bool) {
	key := strings.ToLower(strings.TrimSpace(username))

	mu.Lock()
	defer mu.Unlock()

	a := failures[key]
	if a != nil && now.Before(a.lockedUntil) {
		return models.UserConfig{}, false
	}

	u, ok := users[key]
	if !ok {
		// only configured accounts are tracked
		return models.UserConfig{}, false
	}
	if !u.IsActive() || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		if a == nil {
			a = &attempts{}
			failures[key] = a
		}
		a.failed++
		if a.failed >= maxFailedLogins {
			a.failed = 0
			a.lockedUntil = now.Add(lockoutPeriod)
		}
		return models.UserConfig{}, false
	}

	delete(failures, key)
	return u, true
}

// LoginHandler handles user authentication
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, ok := Authenticate(req.Username, req.Password, time.Now())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := GenerateToken(user.Username, user.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		Token:     token,
		Username:  user.Username,
		Name:      user.Name,
		ExpiresAt: time.Now().Add(tokenTTL),
	})
}

// MeHandler returns the caller's identity from the token
func MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := GetClaimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"username":   claims.Username,
		"name":       claims.Name,
		"expires_at": expires,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
