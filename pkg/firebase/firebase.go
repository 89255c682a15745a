package firebase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var ErrNoCredentials = errors.New("firebase credentials path not provided")

// App holds the Firebase app and the auth client used to verify ID tokens
// exchanged at /auth/firebase-login.
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// InitFirebase loads service account credentials from credentialsPath and
// builds the auth client. A nil log falls back to slog.Default.
func InitFirebase(ctx context.Context, credentialsPath string, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	if credentialsPath == "" {
		return nil, ErrNoCredentials
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials at %s: %w", credentialsPath, err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}

	log.Info("firebase login enabled", "credentials", credentialsPath)
	return &App{FirebaseApp: app, AuthClient: authClient}, nil
}
