//go:build !debug

package render

const buildValidation = false
