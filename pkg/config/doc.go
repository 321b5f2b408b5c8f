// Package config provides configuration management for PawGuardian.
//
// Configuration is resolved in three layers, each overriding the previous:
//
//  1. Built-in defaults
//  2. The YAML file $PAWGUARDIAN_CONFIG_PATH/pawguardian.yml
//     (default /etc/pawguardian/pawguardian.yml)
//  3. Environment variables
//
// A .env file in the working directory is read before the environment is
// consulted, which keeps local runs close to the Cloud Run deployment.
//
// # Environment Variables
//
//   - GOOGLE_CLOUD_PROJECT: Project hosting Vertex AI and Secret Manager
//   - PAWGUARDIAN_LOCATION: Vertex AI region (default asia-northeast1)
//   - PAWGUARDIAN_MODEL_ID: Gemini model (default gemini-2.5-flash)
//   - SERVICE_ACCOUNT_EMAIL: Signer for video URLs when not auto-detected
//   - PAWGUARDIAN_SECRETS_SOURCE: secretmanager or env
//   - PAWGUARDIAN_SIGNED_URL_TTL: Signed URL lifetime in seconds
//   - PAWGUARDIAN_MUSIC_URL: Track returned by the play_music tool
//   - PAWGUARDIAN_ENABLE_CORS, PAWGUARDIAN_ENABLE_XSRF_PROTECTION
//   - PAWGUARDIAN_API_TOKEN_KEY: HMAC key for API bearer tokens
//
// Each attribute remembers its source so `pawguardian configuration show`
// can explain where a value came from.
package config
