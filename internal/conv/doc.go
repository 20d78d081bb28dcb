// Package conv provides checked integer conversions for decoding lengths and
// counts read from segment files.
package conv
