// Package scriptdoc parses and validates narration scripts in the
// REELSMITH_SCRIPT_V1 format.
//
// A script carries VIDEO_TITLE / VIDEO_ID / FORMAT headers followed by
// [HOOK], [INTRO], [SCENES], and [OUTRO] sections; the scenes block holds at
// least three numbered scenes. Sections() returns the narration in voiceover
// order so downstream stages synthesize one audio file per section.
package scriptdoc
