// Package scriptgen expands a project's outline into a narration script in
// the structured script format downstream stages parse.
package scriptgen
