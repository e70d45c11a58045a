// Package pot runs pots, the hierarchical test suites of a prod-test run. It works like Go's
// testing package but runs as ordinary application code, and gives every test its own logger.
package pot
