// Package imagery renders one still image per timestamped media plan entry
// through the generative-media backend's image model.
package imagery
