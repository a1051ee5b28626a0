//go:build debug

package render

const buildValidation = true
