// Package model defines the database models for PawGuardian.
//
// # Tables
//
//   - monitor_runs: one row per monitoring run, including the observation
//     returned by the observer agent and the final report
//   - monitor_actions: the tool calls executed during a run, in order
//
// Audit messages live in the separate messages table owned by pkg/audit.
package model
