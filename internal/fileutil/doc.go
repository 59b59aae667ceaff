// Package fileutil provides small filesystem helpers shared by the organize
// and undo paths, most importantly a move primitive that survives cross-device
// destinations by falling back to an integrity-verified copy.
package fileutil
