// Package registry keeps the live sessions of the daemon in a lock-protected
// map. It validates subjects, enforces the session capacity, and is the only
// place sessions are created or destroyed.
package registry
