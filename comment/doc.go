// Package comment defines the comment rows read from the durable store, the
// threaded nodes built from them, and the store boundary the retrieval engine
// consumes.
//
// The durable store owns comment rows. Nothing in this module writes to it.
package comment
