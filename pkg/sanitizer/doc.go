// Package sanitizer normalizes user supplied booking and room input before
// it is validated and stored.
//
// All functions are idempotent. Input that cannot be normalized is returned
// trimmed but otherwise untouched so that validation can report it.
package sanitizer
