// Package secrets loads the Twilio credentials used by the notification
// tools.
//
// Credentials live in Google Secret Manager in production and in the
// environment (or a .env file) for local runs. A secret that cannot be read
// is logged and left empty so that the remaining tools keep working; the
// notification tools then report that Twilio is not configured.
//
// # Usage
//
//	src, err := secrets.NewSecretManagerSource(ctx, projectID)
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//	s, err := secrets.Load(ctx, src)
package secrets
