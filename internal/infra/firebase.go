// README: Firebase Admin SDK initialisation: token verifier and FCM messaging client.
package infra

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FirebaseToken holds the verified token data used by downstream middleware.
type FirebaseToken struct {
	UID    string
	Claims map[string]interface{}
}

// TokenVerifier verifies a raw Firebase ID token string and returns token data.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error)
}

// FirebaseApp bundles the admin clients the API uses: ID-token auth for
// request middleware and FCM messaging for booking/chat notifications.
type FirebaseApp struct {
	auth      *auth.Client
	Messaging *messaging.Client
}

// NewFirebaseApp initialises the Admin SDK. If credentialsFile is non-empty it
// is used as the service-account JSON path; otherwise application-default
// credentials / GOOGLE_APPLICATION_CREDENTIALS are used. projectID is required
// so the SDK can construct the correct token-verification URL.
func NewFirebaseApp(ctx context.Context, projectID, credentialsFile string) (*FirebaseApp, error) {
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Auth: %w", err)
	}
	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Messaging: %w", err)
	}
	return &FirebaseApp{auth: authClient, Messaging: msgClient}, nil
}

func (a *FirebaseApp) VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error) {
	token, err := a.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return &FirebaseToken{UID: token.UID, Claims: token.Claims}, nil
}
