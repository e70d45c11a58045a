// Package sanity contains the pot that the driver runs after bootstrap. It verifies that the run's
// environment was persisted and can be read back the way other pots will read it.
package sanity
