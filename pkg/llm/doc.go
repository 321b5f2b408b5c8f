// Package llm defines the narrow model surface the PawGuardian agents need
// and implements it on Vertex AI Gemini.
//
// The agents never see SDK types. An Observer turns a video into text, an
// Agent opens a Chat configured with a system instruction and a set of
// function declarations, and a Chat exchanges messages and function results
// until the model stops asking for tools.
package llm
