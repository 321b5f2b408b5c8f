// Package pet describes the animal being monitored and renders the context
// string both agents receive.
//
// Breed names are kept in Japanese because they are shown to the owner as-is
// and matched verbatim when deciding whether the heat protocol applies.
package pet
