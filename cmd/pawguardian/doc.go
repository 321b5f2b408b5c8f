// Command pawguardian runs the PawGuardian in-car pet safety monitor.
//
// PawGuardian watches a surveillance video of a pet left in a parked car,
// asks a video model whether the pet is present and how anxious it is, and
// lets a decision agent apply the safety protocol: open the windows and call
// the owner when the cabin is too hot, play calming music and send an SMS
// when the pet is anxious.
//
// # Architecture
//
// The program is organized into several packages:
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: dashboard and JSON API handlers
//   - pkg/monitor: the observer and decision agent pipeline
//   - pkg/llm: Vertex AI Gemini client and the offline observer
//   - pkg/tools: intervention tools (SMS, call, windows, music)
//   - pkg/notify: Twilio delivery
//   - pkg/secrets: Secret Manager and environment credentials
//   - pkg/media: signed video URLs
//   - pkg/model: database models
//   - pkg/audit: audit logging
//   - pkg/config: configuration management
//
// # Quick Start
//
//	# Run database migrations (optional, runs are kept in memory without a database)
//	pawguardian db migrate
//
//	# Start the server
//	pawguardian server
//
//	# Evaluate a scenario from the command line without calling any model
//	pawguardian monitor --offline --scenario high_anxiety --car-temp 38
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string for run history
//   - AUDIT_DATABASE_URL: PostgreSQL connection string for audit messages
//   - GOOGLE_CLOUD_PROJECT: project hosting Vertex AI and Secret Manager
//   - PAWGUARDIAN_SECRETS_SOURCE: secretmanager or env
//   - PAWGUARDIAN_API_TOKEN_KEY: HMAC key for API bearer tokens
//   - PAWGUARDIAN_LOG_LEVEL: debug enables SQL logging
//   - PORT: server port (default: 8080)
package main
