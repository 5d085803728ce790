// Package testsupport holds fixtures shared by quill's package tests: temp
// directory configs and instant stub stage executors.
package testsupport
