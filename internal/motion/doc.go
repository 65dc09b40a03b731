// Package motion provides the keyframe animations used by the page: entrance
// fades, the floating headline, and the pulse-and-spin loop on the music
// button. Animations are plain values sampled against elapsed time, so the
// renderer can apply them idempotently on every frame.
package motion
