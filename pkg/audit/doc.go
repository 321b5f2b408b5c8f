// Package audit provides audit logging for PawGuardian runs.
//
// Every monitoring run and every intervention the agent performs on the
// vehicle or the owner's phone is written as an RFC5424 syslog line on
// stdout. When AUDIT_DATABASE_URL is set the same events are also inserted
// into the messages table, and Store.Trail reads back every event of one
// run (see "pawguardian audit trail").
//
// # Event Types
//
//   - RunEvent (msgid "run"): one per finished run
//   - InterventionEvent (msgid "intervention"): one per tool call
//
// # Usage
//
//	audit.Log(audit.InterventionEvent{
//	    RunID:   report.ID,
//	    Tool:    "make_emergency_call",
//	    Target:  "owner",
//	    Success: true,
//	})
//
// Set PAWGUARDIAN_AUDIT_ENABLED=false to turn audit logging off.
package audit
