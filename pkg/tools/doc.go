// Package tools implements the actions the decision agent can take.
//
// Each tool has a declaration handed to the model and an implementation run
// by Toolbox.Execute. Tool outcomes, including failures, are plain strings:
// they go back to the model, which summarises them for the owner. Only the
// SMS and call tools reach the outside world; window and music control are
// simulated.
package tools
