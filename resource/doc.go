// Package resource bounds the work a scan may put on the machine:
// a weighted semaphore caps concurrent verification workers, and an
// optional token bucket throttles bytes read from sources.
package resource
