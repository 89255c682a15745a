package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/stories/internal/models"
	"github.com/anonto42/nano-midea/stories/validators"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenResponse struct {
	Token string `json:"token"`
}

func TestSignupAndSignIn(t *testing.T) {
	s := newTestServer(t)
	signup := models.CreateLocalUserRequest{Name: "Alice", Email: "alice@example.com", Password: "correct-horse"}

	rec := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", signup)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var issued tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	require.NotEmpty(t, issued.Token)

	stored, err := s.users.GetUserByEmail("alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.Password)

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/v1/auth/signup", "", signup).Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/signin", "", models.SignInRequest{Email: "alice@example.com", Password: "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))

	rec = s.do(t, http.MethodGet, "/api/v1/profile", issued.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		User models.User `json:"user"`
	}
	decodeData(t, rec, &profile)
	assert.Equal(t, "Alice", profile.User.Name)

	assert.Equal(t, http.StatusUnauthorized,
		s.do(t, http.MethodPost, "/api/v1/auth/signin", "", models.SignInRequest{Email: "alice@example.com", Password: "wrong-password"}).Code)
	assert.Equal(t, http.StatusUnauthorized,
		s.do(t, http.MethodPost, "/api/v1/auth/signin", "", models.SignInRequest{Email: "nobody@example.com", Password: "whatever"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodPost, "/api/v1/auth/signup", "", models.CreateLocalUserRequest{Name: "B", Email: "not-an-email", Password: "short"}).Code)
}

func TestProfile_UnknownUser(t *testing.T) {
	s := newTestServer(t)
	token, err := GenerateToken(testSecret, &models.User{ID: 99}, TokenTTL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/profile", token, nil).Code)
}

type fakeVerifier struct {
	tokens map[string]*auth.Token
}

func (f fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("invalid token")
}

func TestFirebaseLogin(t *testing.T) {
	users := newFakeUserRepo()
	verifier := fakeVerifier{tokens: map[string]*auth.Token{
		"good": {UID: "fb-1", Claims: map[string]interface{}{"email": "fb@example.com", "name": "Fire Base", "picture": "https://cdn.example.com/fb.png"}},
	}}
	e := echo.New()
	e.Validator = validators.NewValidator()
	NewAuthHandler(users, verifier, testSecret).RegisterAuthRoutes(e.Group("/auth"))
	s := &testServer{e: e, users: users}

	rec := s.do(t, http.MethodPost, "/auth/firebase-login", "", FirebaseLoginRequest{IDToken: "good"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	user, err := users.GetUserByFirebaseUID("fb-1")
	require.NoError(t, err)
	assert.Equal(t, "Fire Base", user.Name)
	assert.Equal(t, "fb@example.com", user.Email)

	// a second login reuses the account
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/auth/firebase-login", "", FirebaseLoginRequest{IDToken: "good"}).Code)
	assert.Len(t, users.users, 1)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/auth/firebase-login", "", FirebaseLoginRequest{IDToken: "bad"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/auth/firebase-login", "", FirebaseLoginRequest{}).Code)
}

func TestFirebaseLogin_LinksPasswordAccountByEmail(t *testing.T) {
	users := newFakeUserRepo()
	existing := &models.User{Name: "Pass Word", Email: "fb@example.com", Password: "hashed"}
	require.NoError(t, users.CreateUser(existing))
	verifier := fakeVerifier{tokens: map[string]*auth.Token{
		"good": {UID: "fb-1", Claims: map[string]interface{}{"email": "fb@example.com", "name": "Fire Base"}},
	}}
	e := echo.New()
	e.Validator = validators.NewValidator()
	NewAuthHandler(users, verifier, testSecret).RegisterAuthRoutes(e.Group("/auth"))
	s := &testServer{e: e, users: users}

	rec := s.do(t, http.MethodPost, "/auth/firebase-login", "", FirebaseLoginRequest{IDToken: "good"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Len(t, users.users, 1)
	linked, err := users.GetUserByFirebaseUID("fb-1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)
	assert.Equal(t, "Fire Base", linked.Name)
	assert.Equal(t, "hashed", linked.Password)

	var issued tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	claims := &models.JwtCustomClaims{}
	_, err = jwt.ParseWithClaims(issued.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, claims.UserID)
}

func TestFirebaseLogin_DisabledWithoutVerifier(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/auth/firebase-login", "", FirebaseLoginRequest{IDToken: "good"}).Code)
}
