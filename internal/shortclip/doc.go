// Package shortclip generates the single animated clip that replaces one
// still image in the composed timeline, prompted by the second media plan
// entry.
package shortclip
